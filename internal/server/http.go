package server

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net/http"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"fortio.org/safecast"
	"github.com/goccy/go-json"
	"github.com/karupanerura/rpn-expressions/internal/service"
	"github.com/karupanerura/rpn-expressions/internal/types"
	"github.com/mitchellh/mapstructure"
)

const maxBodySize = 1 << 20

var pathRegexp = regexp.MustCompile(`^/expressions(?:/([^/]+)(?:/([^/]+))?)?/?$`)

var tagStatusMap = map[types.ErrorTag]int{
	types.NotFoundErrorTag:             http.StatusNotFound,
	types.AlreadyExistsErrorTag:        http.StatusConflict,
	types.InvalidTokenErrorTag:         http.StatusBadRequest,
	types.OperatorNotValidHereErrorTag: http.StatusBadRequest,
	types.EvaluationUnderflowErrorTag:  http.StatusConflict,
	types.MalformedExpressionErrorTag:  http.StatusConflict,
}

type expressionIDs struct {
	ExpressionIDs []int `json:"expressionIds"`
}

type pushRequest struct {
	Value    string `mapstructure:"value"`
	Operator string `mapstructure:"operator"`
}

type httpHandler struct {
	service *service.Service
}

func NewHTTPHandler(svc *service.Service) http.Handler {
	return &httpHandler{service: svc}
}

func (h *httpHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m := pathRegexp.FindStringSubmatch(r.URL.Path)
	if m == nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	rawID, action := m[1], m[2]
	if rawID == "" {
		switch r.Method {
		case http.MethodGet:
			h.listExpressions(w, r)
		default:
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id, err := parseID(rawID)
	if err != nil {
		http.Error(w, fmt.Sprintf("Bad Request: %v", err), http.StatusBadRequest)
		return
	}

	switch action {
	case "":
		switch r.Method {
		case http.MethodGet:
			h.getExpression(w, r, id)
		case http.MethodPost:
			h.createExpression(w, r, id)
		case http.MethodDelete:
			h.deleteExpression(w, r, id)
		default:
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}

	case "eval":
		if r.Method != http.MethodGet {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		h.evalExpression(w, r, id)

	case "push_value", "push_operator":
		if r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		h.push(w, r, id, action == "push_operator")

	default:
		http.Error(w, "Not Found", http.StatusNotFound)
	}
}

func parseID(s string) (int, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid expression id %q", s)
	}
	id, err := safecast.Conv[int](n)
	if err != nil {
		return 0, fmt.Errorf("expression id %q out of range", s)
	}
	return id, nil
}

func (h *httpHandler) listExpressions(w http.ResponseWriter, r *http.Request) {
	ids, err := h.service.List(r.Context())
	if err != nil {
		resError(w, err)
		return
	}
	if ids == nil {
		ids = []int{}
	}
	resJSON(w, http.StatusOK, expressionIDs{ExpressionIDs: ids})
}

func (h *httpHandler) getExpression(w http.ResponseWriter, r *http.Request, id int) {
	buf, err := h.service.Get(r.Context(), id)
	if err != nil {
		resError(w, err)
		return
	}
	resText(w, http.StatusOK, buf)
}

func (h *httpHandler) createExpression(w http.ResponseWriter, r *http.Request, id int) {
	body, err := readBody(r)
	if err != nil {
		log.Printf("failed to read request body: %v", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if err = h.service.Create(r.Context(), id, strings.TrimSpace(string(body))); err != nil {
		resError(w, err)
		return
	}
	resText(w, http.StatusOK, "Expression created successfully")
}

func (h *httpHandler) deleteExpression(w http.ResponseWriter, r *http.Request, id int) {
	if err := h.service.Delete(r.Context(), id); err != nil {
		resError(w, err)
		return
	}
	resText(w, http.StatusOK, "Expression deleted successfully.")
}

func (h *httpHandler) evalExpression(w http.ResponseWriter, r *http.Request, id int) {
	result, err := h.service.Evaluate(r.Context(), id)
	if err != nil {
		resError(w, err)
		return
	}
	resText(w, http.StatusOK, result)
}

func (h *httpHandler) push(w http.ResponseWriter, r *http.Request, id int, operator bool) {
	body, err := readBody(r)
	if err != nil {
		log.Printf("failed to read request body: %v", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	req, err := decodePushRequest(body)
	if err != nil {
		log.Printf("failed to decode request body: %v", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	var buf string
	if operator {
		buf, err = h.service.PushOperator(r.Context(), id, req.Operator)
	} else {
		buf, err = h.service.PushValue(r.Context(), id, req.Value)
	}
	if err != nil {
		resError(w, err)
		return
	}
	resText(w, http.StatusOK, buf)
}

func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()

	b, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("io.ReadAll: %w", err)
	}
	return b, nil
}

// decodePushRequest accepts {"value": ...}, {"operator": ...}, a JSON string,
// or the bare token as the whole body.
func decodePushRequest(body []byte) (*pushRequest, error) {
	body = bytes.TrimSpace(body)
	switch {
	case len(body) > 0 && body[0] == '{':
		var m map[string]any
		if err := json.Unmarshal(body, &m); err != nil {
			return nil, fmt.Errorf("json.Unmarshal: %w", err)
		}

		var req pushRequest
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			DecodeHook:       tokenKindHook,
			WeaklyTypedInput: true,
			Result:           &req,
		})
		if err != nil {
			return nil, fmt.Errorf("mapstructure.NewDecoder: %w", err)
		}
		if err = decoder.Decode(m); err != nil {
			return nil, fmt.Errorf("mapstructure.Decode: %w", err)
		}
		return &req, nil

	case len(body) > 0 && body[0] == '"':
		var s string
		if err := json.Unmarshal(body, &s); err != nil {
			return nil, fmt.Errorf("json.Unmarshal: %w", err)
		}
		return &pushRequest{Value: s, Operator: s}, nil

	default:
		s := string(body)
		return &pushRequest{Value: s, Operator: s}, nil
	}
}

// tokenKindHook limits weak typing to strings and numbers so that booleans,
// arrays and objects are not turned into tokens.
var tokenKindHook = mapstructure.DecodeHookFuncKind(func(from, to reflect.Kind, data any) (any, error) {
	if to != reflect.String {
		return data, nil
	}
	switch from {
	case reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return data, nil
	default:
		return nil, fmt.Errorf("token must be a string or a number, got %s", from)
	}
})

func statusOf(err error) int {
	tag, ok := types.TagOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	if status, ok := tagStatusMap[tag]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func resError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
		http.Error(w, "Internal Server Error", status)
		return
	}

	http.Error(w, err.Error(), status)
}

func resText(w http.ResponseWriter, status int, s string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(s)))
	w.WriteHeader(status)
	if _, err := io.WriteString(w, s); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}

func resJSON(w http.ResponseWriter, status int, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("json.MarshalIndent: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(b)+1))
	w.WriteHeader(status)

	if _, err = w.Write(b); err != nil {
		return fmt.Errorf("w.Write: %w", err)
	}
	if _, err = io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("io.WriteString: %w", err)
	}
	return nil
}
