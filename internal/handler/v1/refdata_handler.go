package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/therebootai/democlinicsoftwarebackend/internal/domain/refdata"
	"github.com/therebootai/democlinicsoftwarebackend/internal/service"
)

// RefDataHandler serves the five standard endpoints of every lookup
// collection; the :kind segment of the route selects the namespace.
type RefDataHandler struct {
	svc *service.RefDataService
}

func NewRefDataHandler(svc *service.RefDataService) *RefDataHandler {
	return &RefDataHandler{svc: svc}
}

type createEntryRequest struct {
	Name string `json:"name"`
}

func (h *RefDataHandler) Create(c *gin.Context) {
	var req createEntryRequest
	if !bindJSON(c, &req) {
		return
	}

	e, err := h.svc.Create(c.Request.Context(), refdata.Kind(c.Param("kind")), req.Name)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, "entry created successfully", e)
}

func (h *RefDataHandler) List(c *gin.Context) {
	entries, err := h.svc.List(c.Request.Context(), refdata.Kind(c.Param("kind")))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "entries fetched successfully", entries)
}

// Dropdown returns fuzzy matches for ?search=, or random suggestions
// when the query is empty.
func (h *RefDataHandler) Dropdown(c *gin.Context) {
	entries, err := h.svc.Dropdown(c.Request.Context(), refdata.Kind(c.Param("kind")), c.Query("search"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "entries fetched successfully", entries)
}

func (h *RefDataHandler) Delete(c *gin.Context) {
	var req createEntryRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), refdata.Kind(c.Param("kind")), req.Name); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, "entry deleted successfully", nil)
}
