package soap

import (
	"html"
	"strings"
)

var (
	envelopeNames = []string{"soap:Envelope", "soapenv:Envelope"}
	bodyNames     = []string{"soap:Body", "soapenv:Body"}
)

// resultSuffix marks the element holding an operation's payload.
const resultSuffix = "Result"

// ResultPath names the wrapper and result elements (without prefix) an
// operation's response is expected to carry.
type ResultPath struct {
	Wrapper string
	Result  string
}

// Normalizer locates the payload inside SOAP responses.
type Normalizer struct {
	paths map[Operation]ResultPath
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithResultPath registers or overrides the expected result path of op.
func WithResultPath(op Operation, path ResultPath) NormalizerOption {
	return func(n *Normalizer) {
		n.paths[op] = path
	}
}

// NewNormalizer returns a Normalizer knowing the <Op>Response/<Op>Result
// convention for every operation in Operations.
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{paths: make(map[Operation]ResultPath, len(Operations))}
	for _, op := range Operations {
		n.paths[op] = ResultPath{
			Wrapper: string(op) + "Response",
			Result:  string(op) + resultSuffix,
		}
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize never fails: unparseable input yields a KindFallback result
// carrying the original text.
func (n *Normalizer) Normalize(op Operation, raw string) Result {
	root, err := parseDocument(html.UnescapeString(raw))
	if err != nil {
		return Result{Kind: KindFallback, Raw: raw, Cause: err}
	}

	wrapper := responseWrapper(root)
	if wrapper == nil {
		return Result{Value: root.document(), Source: SourceDocument}
	}

	if path, ok := n.paths[op]; ok && wrapper.local() == path.Wrapper {
		for _, c := range wrapper.children {
			if c.local() == path.Result {
				return Result{Value: childValue(wrapper, c.name), Source: SourceSchema}
			}
		}
	}

	for _, c := range wrapper.children {
		if strings.HasSuffix(c.name, resultSuffix) {
			return Result{Value: childValue(wrapper, c.name), Source: SourceScan}
		}
	}
	return Result{Value: wrapper.value(), Source: SourceWrapper}
}

// responseWrapper returns the first child of the envelope body, or nil when
// the document is not a SOAP envelope.
func responseWrapper(root *element) *element {
	if !oneOf(root.name, envelopeNames) {
		return nil
	}
	var body *element
	for _, name := range bodyNames {
		if body = root.child(name); body != nil {
			break
		}
	}
	if body == nil || len(body.children) == 0 {
		return nil
	}
	return body.children[0]
}

// childValue returns the value stored under name in the parent's map form,
// which is a list when the name repeats.
func childValue(parent *element, name string) any {
	m, ok := parent.value().(map[string]any)
	if !ok {
		return nil
	}
	return m[name]
}

func oneOf(s string, set []string) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}

var defaultNormalizer = NewNormalizer()

// Normalize runs the default Normalizer.
func Normalize(op Operation, raw string) Result {
	return defaultNormalizer.Normalize(op, raw)
}
