package api

import (
	"github.com/JaimeStill/adjuster/internal/config"
	"github.com/JaimeStill/adjuster/pkg/openapi"
)

// buildSpec assembles the OpenAPI document for the API module. Paths mirror
// the route groups registered in registerRoutes; the document is serialized
// once at startup and served as static bytes.
func buildSpec(cfg *config.Config) *openapi.Spec {
	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)
	spec.AddServer(cfg.API.BasePath)

	spec.Components.AddSchemas(domainSchemas())

	addDocumentPaths(spec)
	addSessionPaths(spec)
	addPromptPaths(spec)
	addPrecedentPaths(spec)
	addStoragePaths(spec)

	return spec
}

func pageParams() []*openapi.Parameter {
	return []*openapi.Parameter{
		openapi.QueryParam("page", "integer", "Page number (1-indexed)", false),
		openapi.QueryParam("page_size", "integer", "Results per page", false),
		openapi.QueryParam("search", "string", "Search query", false),
		openapi.QueryParam("sort", "string", "Comma-separated sort fields, - prefix for descending", false),
	}
}

func addDocumentPaths(spec *openapi.Spec) {
	tags := []string{"documents"}

	spec.Paths["/documents"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "List documents",
			Tags:    tags,
			Parameters: append(pageParams(),
				openapi.QueryParam("status", "string", "Filter by status (uploaded, indexed)", false),
				openapi.QueryParam("filename", "string", "Filter by filename substring", false),
				openapi.QueryParam("content_type", "string", "Filter by content type", false),
			),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Paginated document list", "Document"),
			},
		},
		Post: &openapi.Operation{
			Summary:     "Upload a document",
			Description: "Multipart form with a \"file\" field (PDF, TIFF, or DOCX) and an optional \"text\" field carrying extracted document text. Provided text is stored as a sidecar blob and indexed into the knowledge base.",
			Tags:        tags,
			RequestBody: multipartBody("file"),
			Responses: map[int]*openapi.Response{
				201: openapi.ResponseJSON("Registered document", "Document"),
				400: openapi.ResponseRef("BadRequest"),
				413: openapi.ResponseRef("PayloadTooLarge"),
			},
		},
	}

	spec.Paths["/documents/batch"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Upload multiple documents",
			Description: "Multipart form with one or more \"files\" fields. Unsupported content types reject the whole batch; storage and indexing failures are reported per file.",
			Tags:        tags,
			RequestBody: multipartBody("files"),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Per-file upload results", "BatchResult"),
				400: openapi.ResponseRef("BadRequest"),
				413: openapi.ResponseRef("PayloadTooLarge"),
			},
		},
	}

	spec.Paths["/documents/search"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Search documents",
			Description: "Accepts PageRequest fields plus the same filters as the list query parameters.",
			Tags:        tags,
			RequestBody: openapi.RequestBodyJSON("PageRequest", true),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Paginated document list", "Document"),
			},
		},
	}

	spec.Paths["/documents/{id}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Find a document",
			Tags:       tags,
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Document ID")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Document", "Document"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
		Delete: &openapi.Operation{
			Summary:     "Delete a document",
			Description: "Removes the metadata row, its knowledge base chunks, and the stored blobs.",
			Tags:        tags,
			Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Document ID")},
			Responses: map[int]*openapi.Response{
				204: {Description: "Deleted"},
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}

	spec.Paths["/documents/{id}/download"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Download the document blob",
			Tags:       tags,
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Document ID")},
			Responses: map[int]*openapi.Response{
				200: {Description: "File stream with the stored content type"},
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}
}

func addSessionPaths(spec *openapi.Spec) {
	tags := []string{"sessions"}

	spec.Paths["/sessions"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "List processing sessions",
			Tags:    tags,
			Parameters: append(pageParams(),
				openapi.QueryParam("status", "string", "Filter by run status", false),
				openapi.QueryParam("publish_status", "string", "Filter by publish outcome", false),
				openapi.QueryParam("document_id", "string", "Filter by source document", false),
				openapi.QueryParam("collection", "string", "Filter by knowledge base collection", false),
			),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Paginated session list", "Session"),
			},
		},
		Post: &openapi.Operation{
			Summary:     "Run claim processing",
			Description: "Executes the full pipeline synchronously (summarize, question answering, drafting, publication) and returns the recorded session. Stage failures are captured on the record rather than surfaced as HTTP errors.",
			Tags:        tags,
			RequestBody: openapi.RequestBodyJSON("RunCommand", true),
			Responses: map[int]*openapi.Response{
				201: openapi.ResponseJSON("Recorded session", "Session"),
				400: openapi.ResponseRef("BadRequest"),
			},
		},
	}

	spec.Paths["/sessions/search"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Search sessions",
			Description: "Accepts PageRequest fields plus the same filters as the list query parameters.",
			Tags:        tags,
			RequestBody: openapi.RequestBodyJSON("PageRequest", true),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Paginated session list", "Session"),
			},
		},
	}

	spec.Paths["/sessions/{id}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Find a session",
			Tags:       tags,
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Session ID")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Session", "Session"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
		Delete: &openapi.Operation{
			Summary:    "Delete a session",
			Tags:       tags,
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Session ID")},
			Responses: map[int]*openapi.Response{
				204: {Description: "Deleted"},
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}
}

func addPromptPaths(spec *openapi.Spec) {
	tags := []string{"prompts"}

	spec.Paths["/prompts"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "List prompt overrides",
			Tags:    tags,
			Parameters: append(pageParams(),
				openapi.QueryParam("stage", "string", "Filter by pipeline stage", false),
				openapi.QueryParam("name", "string", "Filter by name substring", false),
				openapi.QueryParam("active", "boolean", "Filter by activation state", false),
			),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Paginated prompt list", "Prompt"),
			},
		},
		Post: &openapi.Operation{
			Summary:     "Create a prompt override",
			Tags:        tags,
			RequestBody: openapi.RequestBodyJSON("CreatePrompt", true),
			Responses: map[int]*openapi.Response{
				201: openapi.ResponseJSON("Created prompt", "Prompt"),
				400: openapi.ResponseRef("BadRequest"),
				409: openapi.ResponseRef("Conflict"),
			},
		},
	}

	spec.Paths["/prompts/stages"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "List pipeline stages",
			Tags:    tags,
			Responses: map[int]*openapi.Response{
				200: {
					Description: "Stage names",
					Content: map[string]*openapi.MediaType{
						"application/json": {
							Schema: &openapi.Schema{Type: "array", Items: &openapi.Schema{Type: "string"}},
						},
					},
				},
			},
		},
	}

	spec.Paths["/prompts/search"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Search prompts",
			Description: "Accepts PageRequest fields plus the same filters as the list query parameters.",
			Tags:        tags,
			RequestBody: openapi.RequestBodyJSON("PageRequest", true),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Paginated prompt list", "Prompt"),
			},
		},
	}

	spec.Paths["/prompts/{id}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Find a prompt",
			Tags:       tags,
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Prompt ID")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Prompt", "Prompt"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
		Put: &openapi.Operation{
			Summary:     "Update a prompt",
			Tags:        tags,
			Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Prompt ID")},
			RequestBody: openapi.RequestBodyJSON("CreatePrompt", true),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Updated prompt", "Prompt"),
				404: openapi.ResponseRef("NotFound"),
				409: openapi.ResponseRef("Conflict"),
			},
		},
		Delete: &openapi.Operation{
			Summary:     "Delete a prompt",
			Description: "Active prompts are refused; deactivate first.",
			Tags:        tags,
			Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Prompt ID")},
			Responses: map[int]*openapi.Response{
				204: {Description: "Deleted"},
				404: openapi.ResponseRef("NotFound"),
				409: openapi.ResponseRef("Conflict"),
			},
		},
	}

	spec.Paths["/prompts/{id}/activate"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Activate a prompt",
			Description: "Makes this prompt the active override for its stage, deactivating any other.",
			Tags:        tags,
			Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Prompt ID")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Activated prompt", "Prompt"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}

	spec.Paths["/prompts/{id}/deactivate"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:    "Deactivate a prompt",
			Tags:       tags,
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Prompt ID")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Deactivated prompt", "Prompt"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}

	stageParam := openapi.EnumPathParam(
		"stage", "Pipeline stage", "summarize", "qa", "draft",
	)

	spec.Paths["/prompts/{stage}/instructions"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:     "Resolve stage instructions",
			Description: "Returns the effective instructions for a stage: the active override when one exists, otherwise the built-in default.",
			Tags:        tags,
			Parameters:  []*openapi.Parameter{stageParam},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Effective stage instructions", "StageContent"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}

	spec.Paths["/prompts/{stage}/spec"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:     "Resolve stage output contract",
			Description: "Returns the structured-output contract text appended to the stage instructions.",
			Tags:        tags,
			Parameters:  []*openapi.Parameter{stageParam},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Stage output contract", "StageContent"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}
}

func addPrecedentPaths(spec *openapi.Spec) {
	tags := []string{"precedents"}

	spec.Paths["/precedents"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "List precedents",
			Tags:    tags,
			Parameters: append(pageParams(),
				openapi.QueryParam("outcome", "string", "Filter by outcome", false),
				openapi.QueryParam("claim_id", "string", "Filter by claim reference substring", false),
			),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Paginated precedent list", "Precedent"),
			},
		},
		Post: &openapi.Operation{
			Summary:     "Create a precedent",
			Description: "Embeds the summary text for similarity search.",
			Tags:        tags,
			RequestBody: openapi.RequestBodyJSON("CreatePrecedent", true),
			Responses: map[int]*openapi.Response{
				201: openapi.ResponseJSON("Created precedent", "Precedent"),
				400: openapi.ResponseRef("BadRequest"),
			},
		},
	}

	spec.Paths["/precedents/search"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Search precedents",
			Description: "Accepts PageRequest fields plus the same filters as the list query parameters.",
			Tags:        tags,
			RequestBody: openapi.RequestBodyJSON("PageRequest", true),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Paginated precedent list", "Precedent"),
			},
		},
	}

	spec.Paths["/precedents/match"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Match similar precedents",
			Description: "Embeds the query text and returns the closest precedents by cosine similarity, best first.",
			Tags:        tags,
			RequestBody: openapi.RequestBodyJSON("MatchRequest", true),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Scored matches", "Match"),
				400: openapi.ResponseRef("BadRequest"),
			},
		},
	}

	spec.Paths["/precedents/{id}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Find a precedent",
			Tags:       tags,
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Precedent ID")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Precedent", "Precedent"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
		Delete: &openapi.Operation{
			Summary:    "Delete a precedent",
			Tags:       tags,
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Precedent ID")},
			Responses: map[int]*openapi.Response{
				204: {Description: "Deleted"},
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}
}

func addStoragePaths(spec *openapi.Spec) {
	tags := []string{"storage"}

	keyParam := &openapi.Parameter{
		Name:        "key",
		In:          "path",
		Required:    true,
		Description: "Hierarchical blob key, e.g. drafts/<session>/strategy_note.md",
		Schema:      &openapi.Schema{Type: "string"},
	}

	spec.Paths["/storage"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "List stored blobs",
			Tags:    tags,
			Parameters: []*openapi.Parameter{
				openapi.QueryParam("prefix", "string", "Key prefix filter", false),
				openapi.QueryParam("marker", "string", "Continuation marker from a previous page", false),
				openapi.QueryParam("max_results", "integer", "Page size", false),
			},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Blob metadata page", "BlobListing"),
				400: openapi.ResponseRef("BadRequest"),
			},
		},
	}

	spec.Paths["/storage/download/{key}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Download a blob",
			Tags:       tags,
			Parameters: []*openapi.Parameter{keyParam},
			Responses: map[int]*openapi.Response{
				200: {Description: "File stream with the stored content type"},
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}

	spec.Paths["/storage/{key}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Blob metadata",
			Tags:       tags,
			Parameters: []*openapi.Parameter{keyParam},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Blob metadata", "BlobMetadata"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}
}

func multipartBody(fileField string) *openapi.RequestBody {
	return &openapi.RequestBody{
		Required: true,
		Content: map[string]*openapi.MediaType{
			"multipart/form-data": {
				Schema: &openapi.Schema{
					Type: "object",
					Properties: map[string]*openapi.Schema{
						fileField: {Type: "string", Format: "binary"},
						"text":    {Type: "string", Description: "Extracted document text to index"},
					},
					Required: []string{fileField},
				},
			},
		},
	}
}

func domainSchemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"Document": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":           {Type: "string", Format: "uuid"},
				"filename":     {Type: "string"},
				"content_type": {Type: "string"},
				"size_bytes":   {Type: "integer"},
				"page_count":   {Type: "integer"},
				"storage_key":  {Type: "string"},
				"text_key":     {Type: "string"},
				"status":       {Type: "string", Enum: []any{"uploaded", "indexed"}},
				"uploaded_at":  {Type: "string", Format: "date-time"},
				"updated_at":   {Type: "string", Format: "date-time"},
			},
		},
		"BatchResult": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"document": openapi.SchemaRef("Document"),
				"filename": {Type: "string"},
				"error":    {Type: "string"},
			},
		},
		"Session": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":             {Type: "string", Format: "uuid"},
				"document_id":    {Type: "string", Format: "uuid"},
				"collection":     {Type: "string"},
				"request":        {Type: "string"},
				"question":       {Type: "string"},
				"user_criteria":  {Type: "string"},
				"status":         {Type: "string", Enum: []any{"Pending", "Processing", "Blocked", "Complete", "Failed"}},
				"summary":        {Type: "string"},
				"answer":         {Type: "string"},
				"confidence":     {Type: "integer", Minimum: floatPtr(0), Maximum: floatPtr(5)},
				"qa_retries":     {Type: "integer"},
				"tool_rounds":    {Type: "integer"},
				"draft_file":     {Type: "string", Description: "Blob key of the rendered strategy note"},
				"publish_status": {Type: "string", Description: "Success or Failed, empty before publication"},
				"error_message":  {Type: "string"},
				"steps":          {Type: "array", Items: &openapi.Schema{Type: "string"}},
				"payload":        {Type: "object", Description: "Published run payload snapshot"},
				"created_at":     {Type: "string", Format: "date-time"},
				"completed_at":   {Type: "string", Format: "date-time"},
			},
		},
		"RunCommand": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"document_id":           {Type: "string", Format: "uuid", Description: "Source document to answer from"},
				"collection":            {Type: "string", Description: "Knowledge base collection, defaults to claims"},
				"request":               {Type: "string", Description: "Processing request text"},
				"question":              {Type: "string", Description: "Adjuster question for the QA stage"},
				"text_content_override": {Type: "string", Description: "Raw text to summarize instead of retrieved document content"},
				"user_criteria":         {Type: "string", Description: "Drafting guidance carried into the strategy note stage"},
				"filename":              {Type: "string", Description: "Suggested strategy note filename"},
			},
		},
		"Prompt": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":           {Type: "string", Format: "uuid"},
				"name":         {Type: "string"},
				"stage":        {Type: "string", Enum: []any{"summarize", "qa", "draft"}},
				"instructions": {Type: "string"},
				"description":  {Type: "string"},
				"active":       {Type: "boolean"},
				"updated_at":   {Type: "string", Format: "date-time"},
			},
		},
		"StageContent": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"stage":   {Type: "string", Enum: []any{"summarize", "qa", "draft"}},
				"content": {Type: "string"},
			},
		},
		"CreatePrompt": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"name":         {Type: "string"},
				"stage":        {Type: "string", Enum: []any{"summarize", "qa", "draft"}},
				"instructions": {Type: "string"},
				"description":  {Type: "string"},
			},
			Required: []string{"name", "stage", "instructions"},
		},
		"Precedent": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":         {Type: "string", Format: "uuid"},
				"claim_id":   {Type: "string"},
				"summary":    {Type: "string"},
				"outcome":    {Type: "string"},
				"keywords":   {Type: "array", Items: &openapi.Schema{Type: "string"}},
				"created_at": {Type: "string", Format: "date-time"},
			},
		},
		"CreatePrecedent": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"claim_id": {Type: "string"},
				"summary":  {Type: "string"},
				"outcome":  {Type: "string"},
				"keywords": {Type: "array", Items: &openapi.Schema{Type: "string"}},
			},
			Required: []string{"summary"},
		},
		"MatchRequest": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"query": {Type: "string"},
				"top_k": {Type: "integer", Default: 5},
			},
			Required: []string{"query"},
		},
		"Match": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":         {Type: "string", Format: "uuid"},
				"claim_id":   {Type: "string"},
				"summary":    {Type: "string"},
				"outcome":    {Type: "string"},
				"keywords":   {Type: "array", Items: &openapi.Schema{Type: "string"}},
				"created_at": {Type: "string", Format: "date-time"},
				"score":      {Type: "number", Description: "Cosine similarity, higher is closer"},
			},
		},
		"BlobMetadata": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"key":            {Type: "string"},
				"content_type":   {Type: "string"},
				"content_length": {Type: "integer"},
				"last_modified":  {Type: "string", Format: "date-time"},
				"etag":           {Type: "string"},
			},
		},
		"BlobListing": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"items":       {Type: "array", Items: openapi.SchemaRef("BlobMetadata")},
				"next_marker": {Type: "string"},
			},
		},
	}
}

func floatPtr(v float64) *float64 {
	return &v
}
