package swagger_test

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"

	_ "livesync/docs/swagger"
)

type document struct {
	Info struct {
		Title   string `json:"title"`
		Version string `json:"version"`
	} `json:"info"`
	BasePath    string                    `json:"basePath"`
	Paths       map[string]map[string]any `json:"paths"`
	Definitions map[string]any            `json:"definitions"`
}

func TestReadDoc(t *testing.T) {
	raw, err := swag.ReadDoc()
	require.NoError(t, err)

	var doc document
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	assert.Equal(t, "livesync inspection API", doc.Info.Title)
	assert.Equal(t, "1.0", doc.Info.Version)
	assert.Equal(t, "/", doc.BasePath)

	for _, path := range []string{"/health", "/values", "/values/{name}"} {
		t.Run(path, func(t *testing.T) {
			require.Contains(t, doc.Paths, path)
			assert.Contains(t, doc.Paths[path], "get")
		})
	}
	assert.Contains(t, doc.Definitions, "inspect.Health")
	assert.Contains(t, doc.Definitions, "inspect.ItemState")
	assert.Contains(t, doc.Definitions, "inspect.ItemValue")
}

func TestHandlerServesDoc(t *testing.T) {
	app := fiber.New()
	app.Get("/swagger/*", swagger.HandlerDefault)

	resp, err := app.Test(httptest.NewRequest("GET", "/swagger/doc.json", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var doc document
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.Contains(t, doc.Paths, "/values/{name}")
}
