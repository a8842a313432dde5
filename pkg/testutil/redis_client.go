package testutil

import (
	"context"
	"errors"
	"time"
)

type MockRedisClient struct {
	ExistFunc  func(ctx context.Context, key string) (bool, error)
	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key, value string, expiration time.Duration) error
	DelFunc    func(ctx context.Context, key ...string) error
	GetObjFunc func(ctx context.Context, key string, obj any) error
	SetObjFunc func(ctx context.Context, key string, obj any, expiration time.Duration) error
}

func (m *MockRedisClient) Exist(ctx context.Context, key string) (bool, error) {
	if m.ExistFunc != nil {
		return m.ExistFunc(ctx, key)
	}

	return false, nil
}

func (m *MockRedisClient) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}

	return "", nil
}

func (m *MockRedisClient) Set(ctx context.Context, key, value string, expiration time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, expiration)
	}

	return nil
}

func (m *MockRedisClient) Del(ctx context.Context, key ...string) error {
	if m.DelFunc != nil {
		return m.DelFunc(ctx, key...)
	}

	return nil
}

func (m *MockRedisClient) GetObj(ctx context.Context, key string, obj any) error {
	if m.GetObjFunc != nil {
		return m.GetObjFunc(ctx, key, obj)
	}

	return errors.New("not found")
}

func (m *MockRedisClient) SetObj(ctx context.Context, key string, obj any, expiration time.Duration) error {
	if m.SetObjFunc != nil {
		return m.SetObjFunc(ctx, key, obj, expiration)
	}

	return nil
}
