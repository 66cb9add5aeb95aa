package condition

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/gatewayql/gatewayql/errors"
)

// Built-in condition names.
const (
	NameMethod           = "method"
	NamePathMatch        = "pathMatch"
	NameHeader           = "header"
	NameQueryParam       = "queryParam"
	NameGraphQLOperation = "graphqlOperation"
)

// operationKeyword extracts the leading keyword of a GraphQL document.
var operationKeyword = regexp.MustCompile(`(?i)^\s*(query|mutation|subscription)\b`)

// RegisterBuiltins registers the engine's built-in conditions with the
// provided registry:
//
//   - method: string or array, case-insensitive HTTP method match
//   - pathMatch: string or array of path patterns (regular expressions)
//   - header: {name, value?, exists?} against request headers
//   - queryParam: {name, value?, exists?} against query parameters
//   - graphqlOperation: string or array of query/mutation/subscription,
//     matched against the leading keyword of the request body's query
func RegisterBuiltins(registry *Registry) error {
	if registry == nil {
		return errors.WrapFatal(
			errors.ErrInvalidConfig, "Builtins", "RegisterBuiltins", "registry validation")
	}

	builtins := []*Definition{
		{Name: NameMethod, Handler: methodCondition},
		{Name: NamePathMatch, Handler: pathMatchCondition},
		{Name: NameHeader, Handler: headerCondition},
		{Name: NameQueryParam, Handler: queryParamCondition},
		{Name: NameGraphQLOperation, Handler: graphqlOperationCondition},
	}

	for _, def := range builtins {
		if err := registry.Register(def); err != nil {
			return errors.WrapInvalid(err, "Builtins", "RegisterBuiltins",
				fmt.Sprintf("'%s' condition registration", def.Name))
		}
	}
	return nil
}

// methodCondition matches the request method against one or more methods,
// case-insensitively.
func methodCondition(_ context.Context, params any, rctx *RequestContext) (bool, error) {
	if rctx == nil || rctx.Request == nil {
		return false, nil
	}

	methods, err := stringList(params)
	if err != nil {
		return false, errors.WrapInvalid(err, "Builtins", "methodCondition", "params validation")
	}

	for _, m := range methods {
		if strings.EqualFold(m, rctx.Request.Method) {
			return true, nil
		}
	}
	return false, nil
}

// pathMatchCondition matches the request path against one or more patterns.
// Each pattern is a regular expression.
func pathMatchCondition(_ context.Context, params any, rctx *RequestContext) (bool, error) {
	if rctx == nil || rctx.Request == nil || rctx.Request.URL == nil {
		return false, nil
	}

	patterns, err := stringList(params)
	if err != nil {
		return false, errors.WrapInvalid(err, "Builtins", "pathMatchCondition", "params validation")
	}

	path := rctx.Request.URL.Path
	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return false, errors.WrapInvalid(err, "Builtins", "pathMatchCondition",
				fmt.Sprintf("pattern %q compilation", pattern))
		}
		if re.MatchString(path) {
			return true, nil
		}
	}
	return false, nil
}

// headerCondition matches a request header by name (case-insensitive).
// The exists check takes priority over the value check; value matches
// literally or as a regular expression.
func headerCondition(_ context.Context, params any, rctx *RequestContext) (bool, error) {
	if rctx == nil || rctx.Request == nil {
		return false, nil
	}

	spec, err := parseValueSpec(params)
	if err != nil {
		return false, errors.WrapInvalid(err, "Builtins", "headerCondition", "params validation")
	}

	value := rctx.Request.Header.Get(spec.Name)
	present := value != "" || len(rctx.Request.Header.Values(spec.Name)) > 0
	return spec.match(value, present)
}

// queryParamCondition matches a query parameter with the same shape as the
// header condition.
func queryParamCondition(_ context.Context, params any, rctx *RequestContext) (bool, error) {
	if rctx == nil || rctx.Request == nil || rctx.Request.URL == nil {
		return false, nil
	}

	spec, err := parseValueSpec(params)
	if err != nil {
		return false, errors.WrapInvalid(err, "Builtins", "queryParamCondition", "params validation")
	}

	query := rctx.Request.URL.Query()
	values, present := query[spec.Name]
	value := ""
	if len(values) > 0 {
		value = values[0]
	}
	return spec.match(value, present)
}

// graphqlOperationCondition matches the operation type (query, mutation,
// subscription) of the GraphQL document in the request, case-insensitively.
func graphqlOperationCondition(_ context.Context, params any, rctx *RequestContext) (bool, error) {
	wanted, err := stringList(params)
	if err != nil {
		return false, errors.WrapInvalid(err, "Builtins", "graphqlOperationCondition", "params validation")
	}

	query := graphqlQuery(rctx)
	if query == "" {
		return false, nil
	}

	m := operationKeyword.FindStringSubmatch(query)
	if m == nil {
		return false, nil
	}
	keyword := strings.ToLower(m[1])

	for _, op := range wanted {
		if strings.ToLower(op) == keyword {
			return true, nil
		}
	}
	return false, nil
}

// graphqlQuery resolves the GraphQL document for the request, preferring the
// execution context populated by the gateway pipeline and falling back to
// peeking the HTTP body. The body is restored so downstream readers still
// see it.
func graphqlQuery(rctx *RequestContext) string {
	if rctx == nil {
		return ""
	}
	if rctx.GraphQL != nil && rctx.GraphQL.RawQuery != "" {
		return rctx.GraphQL.RawQuery
	}
	if rctx.Request == nil || rctx.Request.Body == nil || rctx.Request.Body == http.NoBody {
		return ""
	}

	data, err := io.ReadAll(rctx.Request.Body)
	rctx.Request.Body = io.NopCloser(bytes.NewReader(data))
	if err != nil {
		return ""
	}

	var body struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	return body.Query
}

// valueSpec is the parsed {name, value?, exists?} parameter shape shared by
// the header and queryParam conditions.
type valueSpec struct {
	Name      string
	Value     string
	HasValue  bool
	Exists    bool
	HasExists bool
}

// match applies the spec against an observed value. Exists takes priority
// over Value; with neither set, bare presence satisfies the condition.
func (s *valueSpec) match(value string, present bool) (bool, error) {
	if s.HasExists {
		return present == s.Exists, nil
	}
	if s.HasValue {
		if !present {
			return false, nil
		}
		if value == s.Value {
			return true, nil
		}
		re, err := regexp.Compile(s.Value)
		if err != nil {
			// Not a regex, literal comparison already failed
			return false, nil
		}
		return re.MatchString(value), nil
	}
	return present, nil
}

func parseValueSpec(params any) (*valueSpec, error) {
	obj, ok := params.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("params are %T, not an object: %w", params, errors.ErrInvalidExpression)
	}

	name, ok := obj["name"].(string)
	if !ok || name == "" {
		return nil, fmt.Errorf("'name' is required: %w", errors.ErrInvalidExpression)
	}

	spec := &valueSpec{Name: name}
	if v, ok := obj["value"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("'value' is %T, not a string: %w", v, errors.ErrInvalidExpression)
		}
		spec.Value = s
		spec.HasValue = true
	}
	if v, ok := obj["exists"]; ok {
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("'exists' is %T, not a boolean: %w", v, errors.ErrInvalidExpression)
		}
		spec.Exists = b
		spec.HasExists = true
	}
	return spec, nil
}

// stringList accepts a string or a list of strings.
func stringList(params any) ([]string, error) {
	switch v := params.(type) {
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("list item is %T, not a string: %w", item, errors.ErrInvalidExpression)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("params are %T, not a string or list: %w", params, errors.ErrInvalidExpression)
	}
}
