package response

import (
	"encoding/json"
	"net/http"
)

type problemRender struct {
	body map[string]interface{}
}

func (r problemRender) Render(w http.ResponseWriter) error {
	r.WriteContentType(w)
	payload, err := json.Marshal(r.body)
	if err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

func (r problemRender) WriteContentType(w http.ResponseWriter) {
	header := w.Header()
	if val := header["Content-Type"]; len(val) == 0 {
		header["Content-Type"] = []string{ProblemContentType + "; charset=utf-8"}
	}
}
