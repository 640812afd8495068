package server

import (
	"math"
	"net/http"
	"strconv"

	"github.com/df07/go-ppm-raytracer/pkg/core"
	"github.com/df07/go-ppm-raytracer/pkg/geometry"
	"github.com/df07/go-ppm-raytracer/pkg/ppm"
	"github.com/df07/go-ppm-raytracer/pkg/renderer"
	"github.com/df07/go-ppm-raytracer/pkg/scene"
)

// InspectResponse represents the JSON response for pixel inspection
type InspectResponse struct {
	Hit          bool                   `json:"hit"`
	GeometryType string                 `json:"geometryType,omitempty"`
	Point        [3]float64             `json:"point"`
	Normal       [3]float64             `json:"normal"`
	Distance     float64                `json:"distance"`
	FrontFace    bool                   `json:"frontFace"`
	Color        [3]int                 `json:"color"` // PPM channel values of the pixel
	Properties   map[string]interface{} `json:"properties,omitempty"`
}

// InspectResult contains the hit for a single pixel ray
type InspectResult struct {
	Hit       bool
	HitRecord *core.HitRecord
	Shape     geometry.Shape
	Color     core.Vec3
}

// inspectPixel casts the ray for pixel (pixelX, pixelY), with row 0 at the top
// of the image, and reports the closest shape it hits
func inspectPixel(sceneObj *scene.Scene, config renderer.CameraConfig, pixelX, pixelY int) InspectResult {
	rt := renderer.NewRaytracer(sceneObj, config, nil)
	j := rt.Height() - 1 - pixelY

	ray := rt.PixelRay(pixelX, j)
	color := rt.PixelColor(pixelX, j)

	hit, shape, isHit := sceneObj.HitShape(ray, 0, math.Inf(1))
	if !isHit {
		return InspectResult{Hit: false, Color: color}
	}
	return InspectResult{Hit: true, HitRecord: hit, Shape: shape, Color: color}
}

// extractGeometryInfo extracts detailed geometry information
func extractGeometryInfo(shape geometry.Shape) (string, map[string]interface{}) {
	properties := make(map[string]interface{})

	switch geom := shape.(type) {
	case *geometry.Sphere:
		properties["center"] = [3]float64{geom.Center.X, geom.Center.Y, geom.Center.Z}
		properties["radius"] = geom.Radius
		return "sphere", properties
	default:
		return "unknown", properties
	}
}

// handleInspect handles ray casting inspection requests
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	req, err := s.parseRenderRequest(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid scene parameters: "+err.Error())
		return
	}

	pixelX, err := strconv.Atoi(r.URL.Query().Get("x"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid x coordinate")
		return
	}
	pixelY, err := strconv.Atoi(r.URL.Query().Get("y"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid y coordinate")
		return
	}
	if pixelX < 0 || pixelX >= req.Width || pixelY < 0 || pixelY >= req.Height() {
		writeJSONError(w, http.StatusBadRequest, "Pixel coordinates out of bounds")
		return
	}

	sceneObj, err := s.createScene(req.Scene)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Unknown scene: "+req.Scene)
		return
	}

	result := inspectPixel(sceneObj, req.cameraConfig(), pixelX, pixelY)

	cr, cg, cb := ppm.ColorToPixel(result.Color)
	response := InspectResponse{Hit: result.Hit, Color: [3]int{cr, cg, cb}}
	if result.Hit {
		geometryType, geometryProps := extractGeometryInfo(result.Shape)
		rec := result.HitRecord
		response.GeometryType = geometryType
		response.Point = [3]float64{rec.Point.X, rec.Point.Y, rec.Point.Z}
		response.Normal = [3]float64{rec.Normal.X, rec.Normal.Y, rec.Normal.Z}
		response.Distance = rec.T
		response.FrontFace = rec.FrontFace
		response.Properties = geometryProps
	}

	writeJSON(w, http.StatusOK, response)
}
