package testutil

import (
	"context"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/proofdrop-lab/backend/internal/entity"
	"github.com/proofdrop-lab/backend/internal/repository"
)

// SampleUser creates a user with randomized fields. Non-zero fields of
// init overwrite the sample before it is inserted.
func SampleUser(ctx context.Context, init *entity.User) (entity.User, error) {
	userRepo := repository.NewUserRepository()

	sample := &entity.User{
		Base:          entity.Base{ID: uuid.NewString()},
		WalletAddress: "0x" + uuid.NewString(),
		Name:          uuid.NewString(),
		Role:          entity.UserRole,
	}

	if init != nil {
		overwriteFields(sample, *init)
	}

	if err := userRepo.Create(ctx, sample); err != nil {
		return *sample, err
	}
	return *sample, nil
}

func SampleEvent(ctx context.Context, init *entity.Event) (entity.Event, error) {
	eventRepo := repository.NewEventRepository()

	sample := &entity.Event{
		Base:      entity.Base{ID: uuid.NewString()},
		Name:      uuid.NewString(),
		StartedAt: time.Now().Add(-time.Hour),
		EndedAt:   time.Now().Add(time.Hour),
		Active:    true,
	}

	if init != nil {
		overwriteFields(sample, *init)
	}

	if err := eventRepo.Create(ctx, sample); err != nil {
		return *sample, err
	}
	return *sample, nil
}

func SampleReward(ctx context.Context, init *entity.Reward) (entity.Reward, error) {
	rewardRepo := repository.NewRewardRepository()

	sample := &entity.Reward{
		Base:            entity.Base{ID: uuid.NewString()},
		EventID:         uuid.NewString(),
		Chain:           "eth",
		TokenStandard:   entity.TokenStandardERC20,
		TokenAddress:    "0x" + uuid.NewString(),
		Amount:          10,
		TotalSupply:     100,
		RemainingSupply: 100,
	}

	if init != nil {
		overwriteFields(sample, *init)
	}

	if err := rewardRepo.Create(ctx, sample); err != nil {
		return *sample, err
	}
	return *sample, nil
}

func overwriteFields[T any](origin *T, overwrite T) {
	originValue := reflect.ValueOf(origin).Elem()
	overwriteValue := reflect.ValueOf(overwrite)

	for i := 0; i < overwriteValue.NumField(); i++ {
		overwriteField := overwriteValue.Field(i)
		if !overwriteField.Type().Comparable() {
			continue
		}

		if overwriteField.Interface() != reflect.Zero(overwriteField.Type()).Interface() {
			originValue.Field(i).Set(overwriteField)
		}
	}
}
