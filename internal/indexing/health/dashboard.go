package health

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/vietddude/subgraph-monitor/internal/core/domain"
)

//go:embed templates/dashboard.html
var templatesFS embed.FS

var dashboardTmpl = template.Must(template.ParseFS(templatesFS, "templates/dashboard.html"))

type dashboardView struct {
	domain.HealthVerdict
	Endpoints
	StatusText      string
	StatusColor     template.CSS
	StatusTextColor template.CSS
}

func newDashboardView(v domain.HealthVerdict, e Endpoints) dashboardView {
	view := dashboardView{
		HealthVerdict:   v,
		Endpoints:       e,
		StatusText:      "Unhealthy",
		StatusColor:     "#c92d2d",
		StatusTextColor: "#ffffff",
	}
	if v.Healthy {
		view.StatusText = "Healthy"
		view.StatusColor = "#c9b16d"
		view.StatusTextColor = "#000000"
	}
	return view
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, newDashboardView(s.store.Load(), s.endpoints)); err != nil {
		slog.Error("Failed to render dashboard", "error", err)
		http.Error(w, "failed to render dashboard", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Warn("Failed to write dashboard response", "error", err)
	}
}
