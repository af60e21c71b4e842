package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lshigami/examcore/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// cachedExamRepository is a read-through redis cache in front of the exam
// tree. Redis failures fall through to the database.
type cachedExamRepository struct {
	ExamRepository
	rdb *redis.Client
	ttl time.Duration
}

func NewCachedExamRepository(inner ExamRepository, rdb *redis.Client, ttl time.Duration) ExamRepository {
	return &cachedExamRepository{ExamRepository: inner, rdb: rdb, ttl: ttl}
}

func examCacheKey(id uint) string {
	return fmt.Sprintf("exam:%d:content", id)
}

func (r *cachedExamRepository) FindByIDWithContent(ctx context.Context, id uint) (*model.Exam, error) {
	key := examCacheKey(id)
	raw, err := r.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var exam model.Exam
		if jsonErr := json.Unmarshal(raw, &exam); jsonErr == nil {
			return &exam, nil
		}
		log.Warn().Uint("examID", id).Msg("Discarding undecodable cached exam")
	case !errors.Is(err, redis.Nil):
		log.Warn().Err(err).Uint("examID", id).Msg("Exam cache read failed")
	}

	exam, err := r.ExamRepository.FindByIDWithContent(ctx, id)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(exam); err == nil {
		if err := r.rdb.Set(ctx, key, payload, r.ttl).Err(); err != nil {
			log.Warn().Err(err).Uint("examID", id).Msg("Exam cache write failed")
		}
	}
	return exam, nil
}
