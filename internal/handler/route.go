package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/kotihoito/kotihoito/internal/repository"
	"github.com/kotihoito/kotihoito/pkg/model"
	"github.com/kotihoito/kotihoito/pkg/travel"
)

// RouteHandler 当日路线API处理器
type RouteHandler struct {
	store     *repository.Store
	estimator *travel.Estimator
	startZone string
}

// NewRouteHandler 创建路线处理器
func NewRouteHandler(store *repository.Store, estimator *travel.Estimator, startZone string) *RouteHandler {
	return &RouteHandler{store: store, estimator: estimator, startZone: startZone}
}

// routeStop 路线中的一站
type routeStop struct {
	Order      int       `json:"order"`
	PatientID  uuid.UUID `json:"patient_id"`
	VisitTime  string    `json:"visit_time"`
	CareNeeded string    `json:"care_needed"`
	Area       string    `json:"area"`
}

// Optimize 返回专业人员某日访视的建议顺序及路程指标
//
// 仅供路线预览，不改动已排访视时间。
func (h *RouteHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	q := r.URL.Query()
	professionalID, err := uuid.Parse(q.Get("professional_id"))
	if err != nil {
		writeBadRequest(w, "professional_id 无效")
		return
	}
	date := q.Get("date")
	if _, err := model.WeekdayOf(date); err != nil {
		writeBadRequest(w, "date 无效，应为 YYYY-MM-DD")
		return
	}

	visits, err := h.store.ActiveVisitsOn(r.Context(), professionalID, date)
	if err != nil {
		writeError(w, err)
		return
	}

	start := model.Location{Area: h.startZone}
	stops := make([]model.Location, len(visits))
	for i, v := range visits {
		stops[i] = v.Location()
	}

	order := h.estimator.OptimizeRoute(stops, start)
	ordered := make([]model.Location, 0, len(order))
	routeStops := make([]routeStop, 0, len(order))
	for pos, idx := range order {
		v := visits[idx]
		ordered = append(ordered, stops[idx])
		routeStops = append(routeStops, routeStop{
			Order:      pos + 1,
			PatientID:  v.PatientID,
			VisitTime:  v.VisitTime,
			CareNeeded: v.CareNeeded,
			Area:       v.Area,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"date":    date,
		"stops":   routeStops,
		"metrics": h.estimator.Metrics(ordered, start),
	})
}
