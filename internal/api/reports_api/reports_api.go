package reports_api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/BearBump/ShipReport/internal/models"
	"github.com/BearBump/ShipReport/internal/render"
	"github.com/BearBump/ShipReport/internal/services/reports"
	"github.com/go-playground/validator/v10"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type ReportService interface {
	Report(ctx context.Context, req reports.ReportRequest) (reports.Report, error)
	Diagnose(ctx context.Context, date time.Time, cat models.StatusCategory) []reports.Diagnosis
}

type SnapshotStore interface {
	GetSnapshot(ctx context.Context, date time.Time) (models.DailySnapshot, bool, error)
	ListSnapshots(ctx context.Context, from, to time.Time) ([]models.DailySnapshot, error)
}

// ReportsAPI serves reports and stored snapshots over the gateway mux.
type ReportsAPI struct {
	svc       ReportService
	snapshots SnapshotStore
	validate  *validator.Validate
	mux       *runtime.ServeMux
}

func New(svc ReportService, snapshots SnapshotStore) *ReportsAPI {
	return &ReportsAPI{svc: svc, snapshots: snapshots, validate: validator.New()}
}

// Register adds the API routes to mux.
func (a *ReportsAPI) Register(mux *runtime.ServeMux) error {
	a.mux = mux
	routes := []struct {
		path string
		h    runtime.HandlerFunc
	}{
		{"/v1/reports", a.GetReport},
		{"/v1/reports/diagnose", a.Diagnose},
		{"/v1/snapshots", a.ListSnapshots},
		{"/v1/snapshots/{date}", a.GetSnapshot},
	}
	for _, rt := range routes {
		if err := mux.HandlePath(http.MethodGet, rt.path, rt.h); err != nil {
			return err
		}
	}
	return nil
}

type reportQuery struct {
	From   string `validate:"required,datetime=2006-01-02"`
	To     string `validate:"omitempty,datetime=2006-01-02"`
	Status string `validate:"max=100"`
}

type diagnoseQuery struct {
	Date   string `validate:"required,datetime=2006-01-02"`
	Status string `validate:"max=100"`
}

type rangeQuery struct {
	From string `validate:"required,datetime=2006-01-02"`
	To   string `validate:"required,datetime=2006-01-02"`
}

type ReportOrder struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Client      string `json:"client,omitempty"`
	Total       string `json:"total"`
	TTN         string `json:"ttn,omitempty"`
	EventDate   string `json:"eventDate"`
	EventKind   string `json:"eventKind"`
	CreatedAt   string `json:"createdAt,omitempty"`
	CompletedAt string `json:"completedAt,omitempty"`
}

type ReportResponse struct {
	Start  string        `json:"start"`
	End    string        `json:"end"`
	Filter string        `json:"filter"`
	Mode   reports.Mode  `json:"mode"`
	Count  int           `json:"count"`
	Total  string        `json:"total"`
	Orders []ReportOrder `json:"orders"`
	Text   string        `json:"text,omitempty"`
}

func (a *ReportsAPI) GetReport(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	q := r.URL.Query()
	in := reportQuery{From: q.Get("from"), To: q.Get("to"), Status: q.Get("status")}
	if err := a.validate.Struct(in); err != nil {
		a.fail(w, r, status.Error(codes.InvalidArgument, err.Error()))
		return
	}
	start, _ := models.ParseDate(in.From)
	end := start
	if in.To != "" {
		end, _ = models.ParseDate(in.To)
	}

	rep, err := a.svc.Report(r.Context(), reports.ReportRequest{
		Start:  start,
		End:    end,
		Filter: models.ParseStatusFilter(in.Status),
	})
	if err != nil {
		a.fail(w, r, status.Error(codes.InvalidArgument, err.Error()))
		return
	}

	resp := ReportResponse{
		Start:  rep.Start.Format(models.DateLayout),
		End:    rep.End.Format(models.DateLayout),
		Filter: rep.Filter.Label(),
		Mode:   rep.Mode,
		Count:  len(rep.Orders),
		Orders: make([]ReportOrder, 0, len(rep.Orders)),
	}
	total := decimal.Zero
	for _, ro := range rep.Orders {
		total = total.Add(ro.Order.TotalPrice)
		resp.Orders = append(resp.Orders, toReportOrder(ro))
	}
	resp.Total = total.StringFixed(2)
	if q.Get("format") == "text" {
		resp.Text = render.OrderReport(rep.Orders, render.Period(rep.Start, rep.End), rep.Filter)
	}
	writeJSON(w, http.StatusOK, resp)
}

func toReportOrder(ro models.ReportedOrder) ReportOrder {
	o := ro.Order
	out := ReportOrder{
		ID:          o.DisplayID(),
		Status:      o.Status.Title,
		Total:       o.TotalPrice.StringFixed(2),
		TTN:         o.TrackingNumber(),
		EventDate:   ro.EventDate.Format(models.DateLayout),
		EventKind:   string(ro.EventKind),
		CreatedAt:   o.CreatedAt,
		CompletedAt: o.CompletedAt,
	}
	if o.Client != nil {
		out.Client = o.Client.FullName
	}
	return out
}

func (a *ReportsAPI) Diagnose(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	q := r.URL.Query()
	in := diagnoseQuery{Date: q.Get("date"), Status: q.Get("status")}
	if err := a.validate.Struct(in); err != nil {
		a.fail(w, r, status.Error(codes.InvalidArgument, err.Error()))
		return
	}
	date, _ := models.ParseDate(in.Date)
	writeJSON(w, http.StatusOK, map[string]any{
		"date":   in.Date,
		"orders": a.svc.Diagnose(r.Context(), date, models.ParseStatusFilter(in.Status)),
	})
}

type SnapshotResponse struct {
	Date      string     `json:"date"`
	State     string     `json:"state"`
	Count     int        `json:"count"`
	Total     string     `json:"total"`
	OrderIDs  []string   `json:"orderIds"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

func toSnapshotResponse(s models.DailySnapshot) SnapshotResponse {
	updated := s.UpdatedAt
	return SnapshotResponse{
		Date:      s.Date.Format(models.DateLayout),
		State:     models.LookupFromIDs(s.OrderIDs).State.String(),
		Count:     s.Count,
		Total:     s.Total.StringFixed(2),
		OrderIDs:  s.OrderIDs,
		UpdatedAt: &updated,
	}
}

func (a *ReportsAPI) ListSnapshots(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	q := r.URL.Query()
	in := rangeQuery{From: q.Get("from"), To: q.Get("to")}
	if err := a.validate.Struct(in); err != nil {
		a.fail(w, r, status.Error(codes.InvalidArgument, err.Error()))
		return
	}
	from, _ := models.ParseDate(in.From)
	to, _ := models.ParseDate(in.To)
	if to.Before(from) {
		a.fail(w, r, status.Error(codes.InvalidArgument, "to is before from"))
		return
	}

	list, err := a.snapshots.ListSnapshots(r.Context(), from, to)
	if err != nil {
		a.fail(w, r, status.Error(codes.Internal, err.Error()))
		return
	}
	out := make([]SnapshotResponse, 0, len(list))
	for _, s := range list {
		out = append(out, toSnapshotResponse(s))
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": out})
}

func (a *ReportsAPI) GetSnapshot(w http.ResponseWriter, r *http.Request, params map[string]string) {
	date, err := models.ParseDate(params["date"])
	if err != nil {
		a.fail(w, r, status.Error(codes.InvalidArgument, "date must be YYYY-MM-DD"))
		return
	}

	snap, ok, err := a.snapshots.GetSnapshot(r.Context(), date)
	if err != nil {
		a.fail(w, r, status.Error(codes.Internal, err.Error()))
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, SnapshotResponse{
			Date:     date.Format(models.DateLayout),
			State:    models.SnapshotNotCollected.String(),
			Total:    decimal.Zero.StringFixed(2),
			OrderIDs: []string{},
		})
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotResponse(snap))
}

// fail writes err the way the gateway writes gRPC errors.
func (a *ReportsAPI) fail(w http.ResponseWriter, r *http.Request, err error) {
	mux := a.mux
	if mux == nil {
		mux = runtime.NewServeMux()
	}
	runtime.HTTPError(r.Context(), mux, &runtime.JSONPb{}, w, r, err)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
