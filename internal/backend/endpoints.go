package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/neexbeast/partiu085-web/internal/destination"
	"github.com/neexbeast/partiu085-web/internal/offer"
)

// Status is the envelope shared by every backend response.
type Status struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func failure() Status {
	return Status{Success: false, Message: FailureMessage}
}

// envelope mirrors Status on the wire; a missing success flag on a well
// formed JSON reply counts as success.
type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (e envelope) status() Status {
	s := Status{Success: e.Success == nil || *e.Success, Message: e.Message}
	if s.Message == "" {
		s.Message = e.Error
	}
	return s
}

// ---- search ----

// SearchRequest asks the backend to run a manual search.
type SearchRequest struct {
	Mode         offer.Mode `json:"modo"`
	Destinations []string   `json:"destinos"`
	DepartDate   string     `json:"data_ida"`
	ReturnDate   string     `json:"data_volta,omitempty"`
}

// Execute submits a search. The backend runs it in the background.
func (c *Client) Execute(ctx context.Context, req SearchRequest) Status {
	var env envelope
	if c.swallow(c.do(ctx, http.MethodPost, "/api/executar", req, &env)) {
		return failure()
	}
	return env.status()
}

// ---- results ----

// ResultsResponse carries the raw offer list.
type ResultsResponse struct {
	Status
	Results []offer.Offer `json:"results"`
}

// Results fetches every stored offer. The list may arrive under several
// keys depending on the backend revision.
func (c *Client) Results(ctx context.Context) ResultsResponse {
	var wire struct {
		envelope
		Results    []offer.Offer `json:"results"`
		Resultados []offer.Offer `json:"resultados"`
		Ofertas    []offer.Offer `json:"ofertas"`
		Lista      []offer.Offer `json:"lista"`
	}

	path := "/api/resultados?t=" + strconv.FormatInt(c.now().UnixMilli(), 10)
	if c.swallow(c.do(ctx, http.MethodGet, path, nil, &wire)) {
		return ResultsResponse{Status: failure(), Results: []offer.Offer{}}
	}

	list := wire.Results
	for _, alt := range [][]offer.Offer{wire.Resultados, wire.Ofertas, wire.Lista} {
		if len(list) > 0 {
			break
		}
		list = alt
	}
	if list == nil {
		list = []offer.Offer{}
	}
	return ResultsResponse{Status: wire.status(), Results: list}
}

// ---- destinations ----

// DestinationsResponse carries the autocomplete reference list.
type DestinationsResponse struct {
	Status
	Destinations []destination.Destination `json:"destinos"`
}

// Destinations fetches the destination reference list.
func (c *Client) Destinations(ctx context.Context) DestinationsResponse {
	var wire struct {
		envelope
		Destinos []destination.Destination `json:"destinos"`
	}
	if c.swallow(c.do(ctx, http.MethodGet, "/api/destinos", nil, &wire)) {
		return DestinationsResponse{Status: failure(), Destinations: []destination.Destination{}}
	}

	list := make([]destination.Destination, 0, len(wire.Destinos))
	for _, d := range wire.Destinos {
		d.IATA = strings.ToUpper(strings.TrimSpace(d.IATA))
		if d.IATA == "" {
			continue
		}
		list = append(list, d)
	}
	return DestinationsResponse{Status: wire.status(), Destinations: list}
}

// ---- alerts ----

// Alert is a user-created price watch.
type Alert struct {
	ID          string  `json:"id"`
	Origin      string  `json:"origem,omitempty"`
	Destination string  `json:"destino"`
	DepartDate  string  `json:"data_ida"`
	ReturnDate  string  `json:"data_volta,omitempty"`
	TargetPrice float64 `json:"preco_alvo"`
}

// UnmarshalJSON accepts numeric ids and string target prices.
func (a *Alert) UnmarshalJSON(b []byte) error {
	var wire struct {
		ID          json.RawMessage `json:"id"`
		Origin      string          `json:"origem"`
		Destination string          `json:"destino"`
		DepartDate  string          `json:"data_ida"`
		ReturnDate  string          `json:"data_volta"`
		TargetPrice any             `json:"preco_alvo"`
	}
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}

	id := strings.TrimSpace(string(wire.ID))
	if unquoted, err := strconv.Unquote(id); err == nil {
		id = unquoted
	}
	if id == "null" {
		id = ""
	}

	*a = Alert{
		ID:          id,
		Origin:      wire.Origin,
		Destination: wire.Destination,
		DepartDate:  wire.DepartDate,
		ReturnDate:  wire.ReturnDate,
		TargetPrice: offer.NormalizePrice(wire.TargetPrice),
	}
	return nil
}

// AlertInput creates a new alert.
type AlertInput struct {
	Destination string  `json:"destino"`
	DepartDate  string  `json:"data_ida"`
	ReturnDate  string  `json:"data_volta"`
	TargetPrice float64 `json:"preco_alvo"`
}

// AlertsResponse carries the saved alerts.
type AlertsResponse struct {
	Status
	Alerts []Alert `json:"alertas"`
}

// Alerts fetches the saved alerts.
func (c *Client) Alerts(ctx context.Context) AlertsResponse {
	var wire struct {
		envelope
		Alertas []Alert `json:"alertas"`
	}
	if c.swallow(c.do(ctx, http.MethodGet, "/api/alertas", nil, &wire)) {
		return AlertsResponse{Status: failure(), Alerts: []Alert{}}
	}
	if wire.Alertas == nil {
		wire.Alertas = []Alert{}
	}
	return AlertsResponse{Status: wire.status(), Alerts: wire.Alertas}
}

// AddAlert creates an alert.
func (c *Client) AddAlert(ctx context.Context, in AlertInput) Status {
	var env envelope
	if c.swallow(c.do(ctx, http.MethodPost, "/api/alertas", in, &env)) {
		return failure()
	}
	return env.status()
}

// DeleteAlert removes an alert by id.
func (c *Client) DeleteAlert(ctx context.Context, id string) Status {
	var env envelope
	if c.swallow(c.do(ctx, http.MethodDelete, "/api/alertas/"+url.PathEscape(id), nil, &env)) {
		return failure()
	}
	return env.status()
}

// ---- milhas lab ----

// Text processing modes.
const (
	TextModeReais      = "reais"
	TextModeReescrever = "reescrever"
)

// TextResult is the outcome of free-text promo processing. Kind is "voo"
// when Content holds an offer and "texto" when it holds rewritten text.
type TextResult struct {
	Success bool            `json:"sucesso"`
	Kind    string          `json:"tipo,omitempty"`
	Content json.RawMessage `json:"conteudo,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Offer decodes Content when the result is a flight.
func (r TextResult) Offer() (offer.Offer, bool) {
	var o offer.Offer
	if r.Kind != "voo" || len(r.Content) == 0 {
		return o, false
	}
	if err := json.Unmarshal(r.Content, &o); err != nil {
		return o, false
	}
	return o, true
}

// Text decodes Content when the result is rewritten text.
func (r TextResult) Text() (string, bool) {
	var s string
	if r.Kind != "texto" || len(r.Content) == 0 {
		return "", false
	}
	if err := json.Unmarshal(r.Content, &s); err != nil {
		return "", false
	}
	return s, true
}

// ProcessText sends a promo text for conversion to reais or for rewriting.
func (c *Client) ProcessText(ctx context.Context, text, mode string) TextResult {
	body := map[string]string{"texto": text, "modo": mode}

	var res TextResult
	if c.swallow(c.do(ctx, http.MethodPost, "/api/processar-texto", body, &res)) {
		return TextResult{Success: false, Message: FailureMessage}
	}
	if !res.Success && res.Message == "" {
		res.Message = "Erro desconhecido ao processar texto."
	}
	return res
}

// ---- scheduler ----

// SchedulerStatus describes the backend's automatic search scheduler.
type SchedulerStatus struct {
	Success      bool   `json:"success"`
	State        string `json:"status,omitempty"`
	Message      string `json:"message,omitempty"`
	Running      bool   `json:"running"`
	TotalRecords int    `json:"total_registros"`
	LastRun      string `json:"ultima_execucao,omitempty"`
}

// Summary is the one-line text shown on the settings page.
func (s SchedulerStatus) Summary() string {
	switch {
	case s.State != "":
		return s.State
	case s.Message != "":
		return s.Message
	default:
		return "Carregando status do agendador..."
	}
}

// SchedulerStatus fetches the scheduler state.
func (c *Client) SchedulerStatus(ctx context.Context) SchedulerStatus {
	var wire struct {
		envelope
		Status         string `json:"status"`
		Running        *bool  `json:"running"`
		Ativo          *bool  `json:"ativo"`
		TotalRegistros int    `json:"total_registros"`
		UltimaExecucao string `json:"ultima_execucao"`
	}
	if c.swallow(c.do(ctx, http.MethodGet, "/api/agendador/status", nil, &wire)) {
		return SchedulerStatus{Success: false, Message: FailureMessage}
	}

	st := wire.status()
	out := SchedulerStatus{
		Success:      st.Success,
		State:        wire.Status,
		Message:      st.Message,
		TotalRecords: wire.TotalRegistros,
		LastRun:      wire.UltimaExecucao,
	}
	switch {
	case wire.Running != nil:
		out.Running = *wire.Running
	case wire.Ativo != nil:
		out.Running = *wire.Ativo
	}
	return out
}

// StartScheduler resumes automatic searches.
func (c *Client) StartScheduler(ctx context.Context) Status {
	return c.post(ctx, "/api/agendador/iniciar")
}

// PauseScheduler pauses automatic searches.
func (c *Client) PauseScheduler(ctx context.Context) Status {
	return c.post(ctx, "/api/agendador/pausar")
}

// RunSchedulerNow triggers one scheduler cycle immediately.
func (c *Client) RunSchedulerNow(ctx context.Context) Status {
	return c.post(ctx, "/api/agendador/agora")
}

func (c *Client) post(ctx context.Context, path string) Status {
	var env envelope
	if c.swallow(c.do(ctx, http.MethodPost, path, nil, &env)) {
		return failure()
	}
	return env.status()
}

// ---- logs & notifications ----

// LogsResponse carries the latest execution log lines.
type LogsResponse struct {
	Status
	Logs []string `json:"logs"`
}

// ExecutionLogs fetches the backend's recent execution log lines.
func (c *Client) ExecutionLogs(ctx context.Context) LogsResponse {
	var wire struct {
		envelope
		Logs []string `json:"logs"`
	}
	if c.swallow(c.do(ctx, http.MethodGet, "/api/logs_execucao", nil, &wire)) {
		return LogsResponse{Status: failure(), Logs: []string{}}
	}
	if wire.Logs == nil {
		wire.Logs = []string{}
	}
	return LogsResponse{Status: wire.status(), Logs: wire.Logs}
}

// SendOfferToTelegram forwards an offer to the backend's Telegram channel.
func (c *Client) SendOfferToTelegram(ctx context.Context, o offer.Offer) Status {
	var env envelope
	if c.swallow(c.do(ctx, http.MethodPost, "/api/telegram/oferta", o, &env)) {
		return failure()
	}
	return env.status()
}

// Ping checks that the backend answers with JSON. Unlike the domain calls it
// returns the failure, for health checks.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/", nil, nil)
}
