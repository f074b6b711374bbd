package readings

import (
	"net/http"

	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/modules/readings/controller"
	"github.com/LiamJSP/novascotiawildfire-airquality-station-backend/internal/modules/readings/service"
)

// RegisterFeature mounts POST /save and GET /get on mux.
func RegisterFeature(mux *http.ServeMux, svc *service.Service) {
	readingsController := controller.NewReadingsController(svc)
	readingsController.RegisterRoutes(mux)
}
