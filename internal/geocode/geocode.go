// Package geocode 提供地址到经纬度的解析
//
// 上游为 Nominatim，带边界过滤：超出服务城市范围的解析结果直接丢弃。
// 解析结果经 Redis 缓存，同一地址只打一次上游。
package geocode

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/kotihoito/kotihoito/internal/config"
	apperrors "github.com/kotihoito/kotihoito/pkg/errors"
	"github.com/kotihoito/kotihoito/pkg/logger"
)

// Result 地理编码结果
type Result struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	DisplayName string  `json:"display_name,omitempty"`
}

// nominatimHit Nominatim 响应条目
type nominatimHit struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Cache 解析结果缓存接口
type Cache interface {
	Get(ctx context.Context, address string) (*Result, bool)
	Set(ctx context.Context, address string, result *Result)
}

// Client 地理编码客户端
type Client struct {
	http  *resty.Client
	cfg   config.GeocodeConfig
	cache Cache
}

// New 创建地理编码客户端，cache 可为 nil
func New(cfg config.GeocodeConfig, cache Cache) *Client {
	http := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/json")

	return &Client{http: http, cfg: cfg, cache: cache}
}

// Geocode 解析地址
func (c *Client) Geocode(ctx context.Context, address string) (*Result, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, apperrors.InvalidInput("address", "地址为空")
	}

	if c.cache != nil {
		if result, ok := c.cache.Get(ctx, address); ok {
			return result, nil
		}
	}

	var hits []nominatimHit
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":      address,
			"format": "json",
			"limit":  "1",
		}).
		SetResult(&hits).
		Get("/search")
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeGeocodeFailed, "地理编码请求失败")
	}
	if resp.IsError() {
		return nil, apperrors.New(apperrors.CodeGeocodeFailed,
			fmt.Sprintf("地理编码上游返回 %d", resp.StatusCode()))
	}
	if len(hits) == 0 {
		return nil, apperrors.New(apperrors.CodeGeocodeFailed, "地址无解析结果").
			WithField("address", address)
	}

	lat, err := strconv.ParseFloat(hits[0].Lat, 64)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeGeocodeFailed, "解析纬度失败")
	}
	lng, err := strconv.ParseFloat(hits[0].Lon, 64)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeGeocodeFailed, "解析经度失败")
	}

	if !c.inBounds(lat, lng) {
		logger.Warn().
			Str("address", address).
			Float64("lat", lat).
			Float64("lng", lng).
			Msg("地理编码结果超出服务范围，丢弃")
		return nil, apperrors.New(apperrors.CodeGeocodeFailed, "解析结果超出服务范围").
			WithField("address", address)
	}

	result := &Result{Latitude: lat, Longitude: lng, DisplayName: hits[0].DisplayName}
	if c.cache != nil {
		c.cache.Set(ctx, address, result)
	}
	return result, nil
}

// inBounds 检查坐标是否落在服务城市边界内
func (c *Client) inBounds(lat, lng float64) bool {
	return lat >= c.cfg.BoundsMinLat && lat <= c.cfg.BoundsMaxLat &&
		lng >= c.cfg.BoundsMinLng && lng <= c.cfg.BoundsMaxLng
}
