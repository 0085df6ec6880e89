package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/websocket"
	"golang.org/x/text/message"

	"churnapi/churn"
	"churnapi/dashboard"
	"churnapi/logger"
)

// PredictResponse 预测接口响应
type PredictResponse struct {
	Success      bool          `json:"success"`
	FeaturesUsed []string      `json:"features_used,omitempty"`
	Result       *churn.Result `json:"result,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// Handlers 持有接口依赖
type Handlers struct {
	service   *churn.Service
	dashboard *dashboard.Provider
	upgrader  *websocket.Upgrader
}

// NewHandlers origins 与CORS配置相同，也用于WebSocket握手
func NewHandlers(service *churn.Service, provider *dashboard.Provider, origins []string) *Handlers {
	return &Handlers{service: service, dashboard: provider, upgrader: newUpgrader(origins)}
}

// Register 注册路由
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", h.handleHealth)
	mux.HandleFunc("GET /api/dashboard", h.handleDashboard)
	mux.HandleFunc("POST /api/predict", h.handlePredict)
	mux.HandleFunc("GET /api/ws/predict", h.handlePredictStream)
	mux.HandleFunc("GET /apidocs/openapi.json", handleOpenAPI)
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) handleDashboard(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.dashboard.Stats())
}

func (h *Handlers) handlePredict(w http.ResponseWriter, r *http.Request) {
	p := printerFor(r)

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Debugf("[%s] read predict body: %v", GetRequestID(r.Context()), err)
		respondJSON(w, http.StatusBadRequest, PredictResponse{Error: p.Sprintf(msgMissingBody)})
		return
	}

	record, ok := decodeRecord(payload)
	if !ok {
		respondJSON(w, http.StatusBadRequest, PredictResponse{Error: p.Sprintf(msgMissingBody)})
		return
	}

	status, response := h.predict(record, p)
	respondJSON(w, status, response)
}

// predict 执行一次预测并映射状态码
func (h *Handlers) predict(record map[string]interface{}, p *message.Printer) (int, PredictResponse) {
	result, err := h.service.Predict(record)
	if err != nil {
		return statusFor(err), PredictResponse{Error: localizeError(p, err)}
	}
	return http.StatusOK, PredictResponse{
		Success:      true,
		FeaturesUsed: h.service.FeatureNames(),
		Result:       result,
	}
}

// decodeRecord accepts a single non-empty JSON object.
func decodeRecord(payload []byte) (map[string]interface{}, bool) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, false
	}
	decoder := json.NewDecoder(bytes.NewReader(payload))

	var record map[string]interface{}
	if err := decoder.Decode(&record); err != nil || len(record) == 0 {
		return nil, false
	}
	if _, err := decoder.Token(); err != io.EOF {
		return nil, false
	}
	return record, true
}

func statusFor(err error) int {
	if churn.KindOf(err) == churn.KindInvalidInput {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondJSON 输出JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Errorf("failed to encode JSON: %v", err)
	}
}
