package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/JaimeStill/adjuster/pkg/formatting"
	"github.com/JaimeStill/adjuster/pkg/middleware"
	"github.com/JaimeStill/adjuster/pkg/openapi"
	"github.com/JaimeStill/adjuster/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "ADJUSTER_CORS_ENABLED",
	Origins:          "ADJUSTER_CORS_ORIGINS",
	AllowedMethods:   "ADJUSTER_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "ADJUSTER_CORS_ALLOWED_HEADERS",
	ExposeHeaders:    "ADJUSTER_CORS_EXPOSE_HEADERS",
	AllowCredentials: "ADJUSTER_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "ADJUSTER_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "ADJUSTER_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "ADJUSTER_PAGINATION_MAX_PAGE_SIZE",
}

var openAPIEnv = &openapi.ConfigEnv{
	Title:       "ADJUSTER_API_OPENAPI_TITLE",
	Description: "ADJUSTER_API_OPENAPI_DESCRIPTION",
}

// APIConfig holds API routing, CORS, pagination, and spec metadata settings.
type APIConfig struct {
	BasePath       string                `toml:"base_path"`
	MaxUploadSize  string                `toml:"max_upload_size"`
	MaxListResults int32                 `toml:"max_list_results"`
	CORS           middleware.CORSConfig `toml:"cors"`
	Pagination     pagination.Config     `toml:"pagination"`
	OpenAPI        openapi.Config        `toml:"openapi"`
}

func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return 50 * 1024 * 1024 // 50MB fallback
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS and pagination configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.OpenAPI.Finalize(openAPIEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}
	if overlay.MaxListResults != 0 {
		c.MaxListResults = overlay.MaxListResults
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "50MB"
	}
	if c.MaxListResults == 0 {
		c.MaxListResults = 50
	}
	if c.OpenAPI.Title == "" {
		c.OpenAPI.Title = "Adjuster API"
	}
	if c.OpenAPI.Description == "" {
		c.OpenAPI.Description = "Insurance claims processing service: document intake, retrieval-grounded question answering, and strategy note drafting."
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("ADJUSTER_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("ADJUSTER_API_MAX_UPLOAD_SIZE"); v != "" {
		c.MaxUploadSize = v
	}
	if v := os.Getenv("ADJUSTER_API_MAX_LIST_RESULTS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			c.MaxListResults = int32(n)
		}
	}
}
