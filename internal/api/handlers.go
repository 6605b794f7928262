package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/roach88/posterior/internal/cache"
	"github.com/roach88/posterior/internal/diagnostics"
	"github.com/roach88/posterior/internal/ir"
	"github.com/roach88/posterior/internal/plotdata"
	"github.com/roach88/posterior/internal/samples"
	"github.com/roach88/posterior/internal/store"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Error codes.
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeRunNotFound    = "RUN_NOT_FOUND"
	CodeInternal       = "INTERNAL"
)

// KeyInfo describes one variable of a run.
type KeyInfo struct {
	Variable   ir.VariableRef `json:"variable"`
	Display    string         `json:"display"`
	ID         string         `json:"id"`
	EventShape []int          `json:"event_shape"`
}

// RunResponse is the body of GET /runs/:id.
type RunResponse struct {
	Run  store.RunInfo `json:"run"`
	Keys []KeyInfo     `json:"keys"`
}

// VariableResponse is the body of GET /runs/:id/variables/:name.
type VariableResponse struct {
	Variable ir.VariableRef     `json:"variable"`
	Chain    *int               `json:"chain,omitempty"`
	Shape    []int              `json:"shape"`
	Values   []diagnostics.Stat `json:"values"`
}

// HandleHealth reports liveness.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HandleListRuns handles GET /runs.
func (h *Handlers) HandleListRuns(c *gin.Context) {
	runs, err := h.runs.ListRuns(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if runs == nil {
		runs = []store.RunInfo{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// HandleGetRun handles GET /runs/:id.
func (h *Handlers) HandleGetRun(c *gin.Context) {
	info, err := h.runs.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	st, err := h.loadStore(c.Request.Context(), info.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, RunResponse{Run: info, Keys: keyInfos(st)})
}

// HandleKeys handles GET /runs/:id/keys.
func (h *Handlers) HandleKeys(c *gin.Context) {
	st, err := h.loadStore(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"keys": keyInfos(st)})
}

func keyInfos(st *samples.Store) []KeyInfo {
	keys := st.Keys()
	out := make([]KeyInfo, 0, len(keys))
	for _, ref := range keys {
		shape, _ := st.EventShape(ref)
		if shape == nil {
			shape = []int{}
		}
		out = append(out, KeyInfo{Variable: ref, Display: ref.String(), ID: ref.ID(), EventShape: shape})
	}
	return out
}

// HandleVariable handles GET /runs/:id/variables/:name.
// ?chain=N restricts to one chain (chain axis removed); ?include_adapt=true
// includes adaptation draws.
func (h *Handlers) HandleVariable(c *gin.Context) {
	ref, ok := h.variableParam(c)
	if !ok {
		return
	}
	includeAdapt, ok := h.boolQuery(c, "include_adapt")
	if !ok {
		return
	}

	st, err := h.loadStore(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := VariableResponse{Variable: ref}
	if raw, present := c.GetQuery("chain"); present {
		chain, err := strconv.Atoi(raw)
		if err != nil {
			h.badRequest(c, "chain must be an integer")
			return
		}
		if st, err = st.GetChain(chain); err != nil {
			h.fail(c, err)
			return
		}
		resp.Chain = &chain
	}

	tensor, err := st.GetVariable(ref, includeAdapt)
	if err != nil {
		h.fail(c, err)
		return
	}
	resp.Shape = tensor.Shape()
	values := tensor.Values()
	resp.Values = make([]diagnostics.Stat, len(values))
	for i, v := range values {
		resp.Values[i] = diagnostics.Stat(v)
	}
	c.JSON(http.StatusOK, resp)
}

// HandleSummary handles GET /runs/:id/summary.
// ?hdi_prob= overrides the interval mass; repeated ?var= selects variables.
func (h *Handlers) HandleSummary(c *gin.Context) {
	opts := diagnostics.Options{HDIProb: h.hdiProb}
	if raw, present := c.GetQuery("hdi_prob"); present {
		p, err := strconv.ParseFloat(raw, 64)
		if err != nil || p <= 0 || p >= 1 {
			h.badRequest(c, "hdi_prob must be a number in (0, 1)")
			return
		}
		opts.HDIProb = p
	}
	for _, name := range c.QueryArray("var") {
		ref, err := ir.ParseRef(name)
		if err != nil {
			h.badRequest(c, err.Error())
			return
		}
		opts.VarNames = append(opts.VarNames, ref)
	}

	runID := c.Param("id")
	st, err := h.loadStore(c.Request.Context(), runID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if h.cache != nil {
		summary, err := h.cache.GetSummary(runID, opts)
		if err == nil {
			c.JSON(http.StatusOK, summary)
			return
		}
		if !errors.Is(err, cache.ErrMiss) {
			h.logger.Warn("summary cache read failed", "run", runID, "error", err)
		}
	}

	summary, err := diagnostics.Summarize(c.Request.Context(), st, opts)
	if err != nil {
		h.fail(c, err)
		return
	}

	if h.cache != nil {
		if err := h.cache.PutSummary(runID, opts, summary); err != nil {
			h.logger.Warn("summary cache write failed", "run", runID, "error", err)
		}
	}
	c.JSON(http.StatusOK, summary)
}

// HandleTrace handles GET /runs/:id/trace/:name.
func (h *Handlers) HandleTrace(c *gin.Context) {
	ref, ok := h.variableParam(c)
	if !ok {
		return
	}
	elem, ok := h.intQuery(c, "elem", 0)
	if !ok {
		return
	}
	includeAdapt, ok := h.boolQuery(c, "include_adapt")
	if !ok {
		return
	}

	st, err := h.loadStore(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	plot, err := plotdata.Trace(st, ref, elem, includeAdapt)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, plot)
}

// HandleAutocorr handles GET /runs/:id/autocorr/:name.
func (h *Handlers) HandleAutocorr(c *gin.Context) {
	ref, ok := h.variableParam(c)
	if !ok {
		return
	}
	elem, ok := h.intQuery(c, "elem", 0)
	if !ok {
		return
	}
	maxLag, ok := h.intQuery(c, "max_lag", plotdata.DefaultMaxLag)
	if !ok {
		return
	}

	st, err := h.loadStore(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	plot, err := plotdata.Autocorrelation(st, ref, elem, maxLag)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, plot)
}

func (h *Handlers) variableParam(c *gin.Context) (ir.VariableRef, bool) {
	ref, err := ir.ParseRef(c.Param("name"))
	if err != nil {
		h.badRequest(c, err.Error())
		return ir.VariableRef{}, false
	}
	return ref, true
}

func (h *Handlers) intQuery(c *gin.Context, key string, def int) (int, bool) {
	raw, present := c.GetQuery(key)
	if !present {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		h.badRequest(c, key+" must be an integer")
		return 0, false
	}
	return n, true
}

func (h *Handlers) boolQuery(c *gin.Context, key string) (bool, bool) {
	raw, present := c.GetQuery(key)
	if !present {
		return false, true
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		h.badRequest(c, key+" must be a boolean")
		return false, false
	}
	return b, true
}

func (h *Handlers) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: CodeInvalidRequest})
}

// fail maps domain errors to HTTP statuses.
func (h *Handlers) fail(c *gin.Context, err error) {
	var sErr *samples.Error
	switch {
	case errors.Is(err, store.ErrRunNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: CodeRunNotFound})
	case errors.As(err, &sErr) && sErr.Code == samples.ErrCodeKeyNotFound:
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: string(sErr.Code)})
	case errors.As(err, &sErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: string(sErr.Code)})
	default:
		h.logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: CodeInternal})
	}
}
