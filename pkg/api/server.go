// Package api provides the REST API server for retroexport
package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"retroexport/pkg/export"
	"retroexport/pkg/project"
)

// @title RetroExport API
// @version 1.0
// @description API for exporting tracker songs to legacy binary music formats
// @host localhost:8080
// @BasePath /api/v1

// StartServer starts the API server on the specified port
func StartServer(port int) error {
	r := gin.Default()

	// CORS middleware
	r.Use(corsMiddleware())

	// Health check
	r.GET("/health", healthCheck)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/formats", listFormats)
		v1.POST("/export/:format", handleExport)
	}

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r.Run(fmt.Sprintf(":%d", port))
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "retroexport",
	})
}

// listFormats godoc
// @Summary List supported export formats
// @Description Returns the export formats and their file extensions
// @Tags info
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/formats [get]
func listFormats(c *gin.Context) {
	extensions := map[string]string{
		string(export.FormatGYM): ".gym",
	}
	for _, e := range export.Exporters() {
		extensions[e.Name()] = e.Extension()
	}
	c.JSON(http.StatusOK, gin.H{
		"formats":    export.FormatNames(),
		"extensions": extensions,
	})
}

// handleExport godoc
// @Summary Export a project to a legacy format
// @Description Upload a project JSON file and receive the encoded module. The gym format consumes the project's register trace; all others consume the song.
// @Tags export
// @Accept multipart/form-data
// @Produce application/octet-stream
// @Param format path string true "Target format (med, okt, nano, mid, gym)"
// @Param file formData file true "Project JSON file"
// @Param rate query number false "Sample rate for gym timestamps (default: 44100)"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Router /api/v1/export/{format} [post]
func handleExport(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return
	}

	format := c.Param("format")
	if format == string(export.FormatGYM) {
		exportGYM(c, data, header.Filename)
		return
	}

	e, err := export.ByName(format)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	song, err := project.Parse(data, "")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !e.CanExport(song) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("song cannot be exported as %s", e.Name())})
		return
	}

	result, err := e.Export(song)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	sendAttachment(c, result, export.OutputName(header.Filename, e.Extension()), e.Name())
}

// exportGYM handles the trace-driven format. The sample rate that the
// trace timestamps count in may be overridden per request.
func exportGYM(c *gin.Context, data []byte, filename string) {
	rateStr := c.DefaultQuery("rate", strconv.Itoa(export.DefaultSampleRate))
	rate, err := strconv.ParseFloat(rateStr, 64)
	if err != nil || rate <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sample rate"})
		return
	}

	trace, err := project.ParseTrace(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result := export.EncodeGYM(trace, rate)
	sendAttachment(c, result, export.OutputName(filename, ".gym"), string(export.FormatGYM))
}

func sendAttachment(c *gin.Context, data []byte, filename, format string) {
	var contentType string
	switch format {
	case string(export.FormatMIDI):
		contentType = "audio/midi"
	default:
		contentType = "application/octet-stream"
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, contentType, data)
}
