package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/leca/ci-smoke/internal/api"
	"github.com/leca/ci-smoke/internal/imageproc"
)

const defaultImageSize = 100

type slide struct {
	Items []string `json:"items,omitempty"`
	Title string   `json:"title"`
	Type  string   `json:"type"`
}

type slideshow struct {
	Author string  `json:"author"`
	Date   string  `json:"date"`
	Slides []slide `json:"slides"`
	Title  string  `json:"title"`
}

var sampleSlideshow = slideshow{
	Author: "Yours Truly",
	Date:   "date of publication",
	Slides: []slide{
		{Title: "Wake up to WonderWidgets!", Type: "all"},
		{
			Items: []string{"Why <em>WonderWidgets</em> are great", "Who <em>buys</em> WonderWidgets"},
			Title: "Overview",
			Type:  "all",
		},
	},
	Title: "Sample Slide Show",
}

// JSON handles GET /json with a fixed sample document.
func (h *Handler) JSON(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, map[string]any{"slideshow": sampleSlideshow})
}

const formsPage = `<!DOCTYPE html>
<html>
  <head><title>Order form</title></head>
  <body>
  <form method="post" action="/post">
   <p><label>Customer name: <input name="custname"></label></p>
   <p><label>Telephone: <input type=tel name="custtel"></label></p>
   <p><label>E-mail address: <input type=email name="custemail"></label></p>
   <fieldset>
    <legend> Pizza Size </legend>
    <select name="size">
     <option value="small">Small</option>
     <option value="medium">Medium</option>
     <option value="large">Large</option>
    </select>
   </fieldset>
   <fieldset>
    <legend> Pizza Toppings </legend>
    <p><label> <input type=checkbox name="topping" value="bacon"> Bacon </label></p>
    <p><label> <input type=checkbox name="topping" value="cheese"> Extra Cheese </label></p>
    <p><label> <input type=checkbox name="topping" value="onion"> Onion </label></p>
    <p><label> <input type=checkbox name="topping" value="mushroom"> Mushroom </label></p>
   </fieldset>
   <p><label>Preferred delivery time: <input type=time min="11:00" max="21:00" step="900" name="delivery"></label></p>
   <p><label>Delivery instructions: <textarea name="comments"></textarea></label></p>
   <p><button type="submit">Submit order</button></p>
  </form>
  </body>
</html>
`

// FormsPost handles GET /forms/post with an HTML form that submits to /post.
func (h *Handler) FormsPost(w http.ResponseWriter, r *http.Request) {
	api.WriteHTML(w, http.StatusOK, formsPage)
}

const indexPage = `<!DOCTYPE html>
<html>
  <head><title>echod</title></head>
  <body>
  <h1>echod</h1>
  <p>HTTP request and response service for smoke tests.</p>
  <ul>
   <li><a href="/get">/get</a> returns GET data</li>
   <li><a href="/headers">/headers</a> returns request headers</li>
   <li><a href="/json">/json</a> returns a sample JSON document</li>
   <li><a href="/status/200">/status/:codes</a> returns the given status code</li>
   <li><a href="/delay/1">/delay/:n</a> delays the response by n seconds</li>
   <li><a href="/forms/post">/forms/post</a> HTML form that posts to /post</li>
   <li><a href="/image/png">/image/png</a> returns a PNG image</li>
   <li><a href="/uuid">/uuid</a> returns a UUID4</li>
  </ul>
  </body>
</html>
`

// Index handles GET /.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	api.WriteHTML(w, http.StatusOK, indexPage)
}

// Image handles GET /image/{format}. Size comes from the width and height
// query parameters.
func (h *Handler) Image(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if format == "jpg" {
		format = "jpeg"
	}
	if format != "png" && format != "jpeg" && format != "gif" {
		api.NotFound(w, "unsupported image format")
		return
	}

	width, err := dimension(r, "width")
	if err != nil {
		api.BadRequest(w, "invalid width")
		return
	}
	height, err := dimension(r, "height")
	if err != nil {
		api.BadRequest(w, "invalid height")
		return
	}

	data, err := imageproc.Generate(format, width, height)
	if err != nil {
		api.BadRequest(w, err.Error())
		return
	}

	w.Header().Set("Content-Type", imageproc.ContentType(format))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func dimension(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultImageSize, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n < 1 || n > imageproc.MaxDimension {
		return 0, strconv.ErrRange
	}
	return n, nil
}
