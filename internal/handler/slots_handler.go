package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/openedx-sample-plugin/pkg/errors"
	"github.com/noah-isme/openedx-sample-plugin/pkg/response"
	"github.com/noah-isme/openedx-sample-plugin/pkg/slots"
)

// SlotsHandler serves the plugin slot configuration of each MFE.
type SlotsHandler struct {
	registry *slots.Registry
}

// NewSlotsHandler builds a handler.
func NewSlotsHandler(registry *slots.Registry) *SlotsHandler {
	return &SlotsHandler{registry: registry}
}

// Config godoc
// @Summary Plugin slot configuration for a micro-frontend
// @Tags MFEConfig
// @Produce json
// @Param mfe query string true "Micro-frontend name"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /api/mfe_config/v1/plugin-slots [get]
func (h *SlotsHandler) Config(c *gin.Context) {
	mfe := c.Query("mfe")
	if mfe == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "mfe is required"))
		return
	}
	response.OK(c, gin.H{"mfe": mfe, "pluginSlots": h.registry.Config(mfe)})
}

// EnvConfig godoc
// @Summary env.config.jsx fragment for a micro-frontend
// @Tags MFEConfig
// @Produce plain
// @Param mfe query string true "Micro-frontend name"
// @Success 200 {string} string
// @Router /api/mfe_config/v1/plugin-slots/env.config.jsx [get]
func (h *SlotsHandler) EnvConfig(c *gin.Context) {
	mfe := c.Query("mfe")
	if mfe == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "mfe is required"))
		return
	}
	out, err := h.registry.Render(mfe)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Data(http.StatusOK, "text/javascript; charset=utf-8", []byte(out))
}
