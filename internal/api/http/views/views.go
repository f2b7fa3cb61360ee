// Package views holds the embedded page templates.
package views

import (
	"embed"
	"net/http"

	"github.com/gofiber/template/html/v2"
)

// Layout wraps every page.
const Layout = "layouts/main"

//go:embed *.html layouts/*.html partials/*.html
var files embed.FS

// NewEngine returns a template engine reading the embedded templates.
func NewEngine() *html.Engine {
	return html.NewFileSystem(http.FS(files), ".html")
}
