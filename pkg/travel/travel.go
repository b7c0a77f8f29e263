// Package travel 提供访视间路程时间估算
//
// 双方都有坐标时按 Haversine 距离换算车程，否则回退到
// 静态的服务区间分钟表。不做真实路网计算。
package travel

import (
	"math"
	"strings"

	"github.com/kotihoito/kotihoito/pkg/model"
)

// Config 估算器配置
type Config struct {
	AverageSpeedKmh    float64 // 市区平均车速
	DetourFactor       float64 // 直线距离到实际路程的放大系数
	BufferMinutes      int     // 停车/上门缓冲
	DefaultZoneMinutes int     // 缺少服务区信息时的默认分钟数
	UnknownPairMinutes int     // 服务区对不在表中时的默认分钟数
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		AverageSpeedKmh:    30,
		DetourFactor:       1.3,
		BufferMinutes:      5,
		DefaultZoneMinutes: 15,
		UnknownPairMinutes: 20,
	}
}

// Estimator 路程时间估算器
type Estimator struct {
	cfg       Config
	zoneTable map[string]map[string]int
}

// New 创建估算器（使用内置的服务区分钟表）
func New(cfg Config) *Estimator {
	return &Estimator{cfg: cfg, zoneTable: defaultZoneTable()}
}

// NewWithZoneTable 创建带自定义服务区分钟表的估算器
func NewWithZoneTable(cfg Config, table map[string]map[string]int) *Estimator {
	return &Estimator{cfg: cfg, zoneTable: table}
}

// DistanceKm 计算两点间距离（公里），Haversine 公式
func (e *Estimator) DistanceKm(from, to model.Location) float64 {
	return from.Distance(to)
}

// TravelMinutes 估算两地间路程时间（分钟）
// 任一方缺坐标时回退到服务区分钟表
func (e *Estimator) TravelMinutes(from, to model.Location) int {
	if hasCoords(from) && hasCoords(to) {
		km := from.Distance(to)
		minutes := km * e.cfg.DetourFactor / e.cfg.AverageSpeedKmh * 60
		return int(math.Ceil(minutes)) + e.cfg.BufferMinutes
	}
	return e.zoneMinutes(from.Area, to.Area)
}

// zoneMinutes 查询服务区间分钟表
func (e *Estimator) zoneMinutes(from, to string) int {
	if from == "" || to == "" {
		return e.cfg.DefaultZoneMinutes
	}
	row, ok := e.zoneTable[canonZone(from)]
	if !ok {
		return e.cfg.UnknownPairMinutes
	}
	minutes, ok := row[canonZone(to)]
	if !ok {
		return e.cfg.UnknownPairMinutes
	}
	return minutes
}

func hasCoords(l model.Location) bool {
	return l.Latitude != 0 || l.Longitude != 0
}

func canonZone(z string) string {
	return strings.TrimSpace(z)
}

// RouteSegment 路线分段
type RouteSegment struct {
	From       string  `json:"from"`
	To         string  `json:"to"`
	DistanceKm float64 `json:"distance_km"`
	Minutes    int     `json:"minutes"`
}

// RouteMetrics 路线总指标
type RouteMetrics struct {
	TotalDistanceKm float64        `json:"total_distance_km"`
	TotalMinutes    int            `json:"total_minutes"`
	Segments        []RouteSegment `json:"segments"`
}

// OptimizeRoute 按最近邻顺序重排访视点，返回重排后的索引序列
func (e *Estimator) OptimizeRoute(stops []model.Location, start model.Location) []int {
	if len(stops) == 0 {
		return nil
	}

	order := make([]int, 0, len(stops))
	visited := make([]bool, len(stops))
	current := start

	for len(order) < len(stops) {
		nearest := -1
		nearestCost := math.MaxFloat64

		for i, stop := range stops {
			if visited[i] {
				continue
			}
			var cost float64
			if hasCoords(current) && hasCoords(stop) {
				cost = current.Distance(stop)
			} else {
				// 分钟换算成伪距离，保持与坐标路径可比
				cost = float64(e.zoneMinutes(current.Area, stop.Area)) / 2
			}
			if cost < nearestCost {
				nearestCost = cost
				nearest = i
			}
		}

		visited[nearest] = true
		order = append(order, nearest)
		current = stops[nearest]
	}

	return order
}

// Metrics 计算按给定顺序访问各点的路线指标
func (e *Estimator) Metrics(stops []model.Location, start model.Location) RouteMetrics {
	metrics := RouteMetrics{}
	current := start

	for _, stop := range stops {
		seg := RouteSegment{From: segmentName(current), To: segmentName(stop)}
		if hasCoords(current) && hasCoords(stop) {
			seg.DistanceKm = current.Distance(stop)
		} else {
			seg.DistanceKm = float64(e.zoneMinutes(current.Area, stop.Area)) * 0.5
		}
		seg.Minutes = e.TravelMinutes(current, stop)

		metrics.TotalDistanceKm += seg.DistanceKm
		metrics.TotalMinutes += seg.Minutes
		metrics.Segments = append(metrics.Segments, seg)
		current = stop
	}

	metrics.TotalDistanceKm = math.Round(metrics.TotalDistanceKm*10) / 10
	return metrics
}

func segmentName(l model.Location) string {
	if l.Area != "" {
		return l.Area
	}
	return l.Address
}
