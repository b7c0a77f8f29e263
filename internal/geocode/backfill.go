package geocode

import (
	"context"
	"time"

	"github.com/kotihoito/kotihoito/internal/repository"
	"github.com/kotihoito/kotihoito/pkg/logger"
)

// BackfillResult 批量回填结果
type BackfillResult struct {
	Scanned int `json:"scanned"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// Backfiller 坐标批量回填器
//
// 扫描有地址但缺坐标的患者，逐个解析并写回。
// 上游有速率限制，条目间固定间隔。
type Backfiller struct {
	client   *Client
	patients *repository.PatientRepository
	interval time.Duration
}

// NewBackfiller 创建回填器
func NewBackfiller(client *Client, patients *repository.PatientRepository) *Backfiller {
	return &Backfiller{
		client:   client,
		patients: patients,
		interval: time.Second,
	}
}

// Run 执行一轮回填，最多处理 limit 个患者
func (b *Backfiller) Run(ctx context.Context, limit int) (*BackfillResult, error) {
	if limit <= 0 {
		limit = 50
	}

	patients, err := b.patients.ListWithoutCoordinates(ctx, limit)
	if err != nil {
		return nil, err
	}

	result := &BackfillResult{Scanned: len(patients)}
	for i, p := range patients {
		if i > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(b.interval):
			}
		}

		geo, err := b.client.Geocode(ctx, p.Address)
		if err != nil {
			logger.Warn().
				Str("patient_id", p.ID.String()).
				Err(err).
				Msg("患者地址解析失败")
			result.Failed++
			continue
		}

		if err := b.patients.UpdateCoordinates(ctx, p.ID, geo.Latitude, geo.Longitude); err != nil {
			logger.Warn().
				Str("patient_id", p.ID.String()).
				Err(err).
				Msg("患者坐标写回失败")
			result.Failed++
			continue
		}
		result.Updated++
	}

	logger.Info().
		Int("scanned", result.Scanned).
		Int("updated", result.Updated).
		Int("failed", result.Failed).
		Msg("坐标回填完成")
	return result, nil
}
