package builtin

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/rand"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/hitplate/packages/convert"
	"github.com/abdul-hamid-achik/hitplate/packages/core/vartype"
	"github.com/google/uuid"
)

// Func produces the text of a binding from its arguments.
type Func func(args []string) (string, error)

type Registry struct {
	funcs map[string]Func
}

func NewRegistry() *Registry {
	r := &Registry{
		funcs: make(map[string]Func),
	}
	r.registerDefaults()
	return r
}

func (r *Registry) registerDefaults() {
	r.funcs["now"] = funcNow
	r.funcs["date"] = funcDate
	r.funcs["timestamp"] = funcTimestamp
	r.funcs["timestampMs"] = funcTimestampMs
	r.funcs["uuid"] = funcUUID
	r.funcs["random"] = funcRandom
	r.funcs["randomString"] = funcRandomString
	r.funcs["randomEmail"] = funcRandomEmail
	r.funcs["base64"] = funcBase64
	r.funcs["base64Decode"] = funcBase64Decode
	r.funcs["sha256"] = funcSHA256
	r.funcs["urlEncode"] = funcURLEncode
	r.funcs["list"] = funcList
	r.funcs["repeat"] = funcRepeat
	r.funcs["range"] = funcRange
}

func (r *Registry) Register(name string, fn Func) {
	r.funcs[name] = fn
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	return names
}

var funcCallPattern = regexp.MustCompile(`^(\w+)\((.*)\)$`)

// Call evaluates an expression such as randomString(8). The boolean is false
// when expr is not a call of a registered function.
func (r *Registry) Call(expr string) (string, bool, error) {
	matches := funcCallPattern.FindStringSubmatch(strings.TrimSpace(expr))
	if matches == nil {
		return "", false, nil
	}

	name := matches[1]
	fn, ok := r.funcs[name]
	if !ok {
		return "", false, nil
	}

	var args []string
	if matches[2] != "" {
		args = parseArgs(matches[2])
	}

	out, err := fn(args)
	if err != nil {
		return "", true, fmt.Errorf("%s(): %w", name, err)
	}
	return out, true, nil
}

func parseArgs(s string) []string {
	var args []string
	var current strings.Builder
	inQuote := false
	quoteChar := byte(0)

	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case !inQuote && (ch == '"' || ch == '\''):
			inQuote = true
			quoteChar = ch
		case inQuote && ch == quoteChar:
			inQuote = false
			quoteChar = 0
		case !inQuote && ch == ',':
			args = append(args, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(ch)
		}
	}

	if current.Len() > 0 {
		args = append(args, strings.TrimSpace(current.String()))
	}

	return args
}

func intArg(args []string, i, def int) (int, error) {
	if len(args) <= i || args[i] == "" {
		return def, nil
	}
	v, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, fmt.Errorf("argument %q is not a valid integer", args[i])
	}
	return v, nil
}

// funcNow formats the current UTC time. The optional argument uses the
// template date format, as in now(yyyy-MM-dd HH:mm).
func funcNow(args []string) (string, error) {
	now := time.Now().UTC()
	if len(args) > 0 && args[0] != "" {
		return convert.FormatTime(now, args[0]), nil
	}
	return now.Format(time.RFC3339), nil
}

// funcDate is now with a day offset: date(-1) is yesterday.
func funcDate(args []string) (string, error) {
	days, err := intArg(args, 0, 0)
	if err != nil {
		return "", err
	}
	format := "yyyy-MM-dd"
	if len(args) > 1 && args[1] != "" {
		format = args[1]
	}
	return convert.FormatTime(time.Now().UTC().AddDate(0, 0, days), format), nil
}

func funcTimestamp(_ []string) (string, error) {
	return strconv.FormatInt(time.Now().Unix(), 10), nil
}

func funcTimestampMs(_ []string) (string, error) {
	return strconv.FormatInt(time.Now().UnixMilli(), 10), nil
}

func funcUUID(_ []string) (string, error) {
	return uuid.New().String(), nil
}

func funcRandom(args []string) (string, error) {
	lo, err := intArg(args, 0, 0)
	if err != nil {
		return "", err
	}
	hi, err := intArg(args, 1, 100)
	if err != nil {
		return "", err
	}
	if hi < lo {
		return "", fmt.Errorf("max %d is less than min %d", hi, lo)
	}
	return strconv.Itoa(rand.Intn(hi-lo+1) + lo), nil
}

func funcRandomString(args []string) (string, error) {
	length, err := intArg(args, 0, 16)
	if err != nil {
		return "", err
	}
	if length < 0 {
		return "", fmt.Errorf("negative length %d", length)
	}
	return randomString(length, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"), nil
}

func funcRandomEmail(_ []string) (string, error) {
	user := randomString(8, "abcdefghijklmnopqrstuvwxyz")
	domain := randomString(6, "abcdefghijklmnopqrstuvwxyz")
	return fmt.Sprintf("%s@%s.com", user, domain), nil
}

func funcBase64(args []string) (string, error) {
	if len(args) < 1 {
		return "", nil
	}
	return base64.StdEncoding.EncodeToString([]byte(args[0])), nil
}

func funcBase64Decode(args []string) (string, error) {
	if len(args) < 1 {
		return "", nil
	}
	decoded, err := base64.StdEncoding.DecodeString(args[0])
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

func funcSHA256(args []string) (string, error) {
	if len(args) < 1 {
		return "", nil
	}
	hash := sha256.Sum256([]byte(args[0]))
	return hex.EncodeToString(hash[:]), nil
}

func funcURLEncode(args []string) (string, error) {
	if len(args) < 1 {
		return "", nil
	}
	return url.QueryEscape(args[0]), nil
}

// funcList renders its arguments as a JSON string array for binding to an
// array variable: list(a, b) gives ["a","b"].
func funcList(args []string) (string, error) {
	items := make([]any, len(args))
	for i, a := range args {
		items[i] = a
	}
	return convert.ToJSONText(items, vartype.ArrayOf(vartype.String)), nil
}

// funcRepeat renders a JSON string array holding value n times.
func funcRepeat(args []string) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("expected a value and a count")
	}
	n, err := intArg(args, 1, 0)
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", fmt.Errorf("negative count %d", n)
	}
	return convert.ToJSONText(convert.Broadcast(args[0], n), vartype.ArrayOf(vartype.String)), nil
}

// funcRange renders the integers from start up to and excluding end as a
// JSON array: range(1, 4) gives [1,2,3].
func funcRange(args []string) (string, error) {
	start, err := intArg(args, 0, 0)
	if err != nil {
		return "", err
	}
	end, err := intArg(args, 1, start)
	if err != nil {
		return "", err
	}
	items := []any{}
	for i := start; i < end; i++ {
		items = append(items, int64(i))
	}
	return convert.ToJSONText(items, vartype.ArrayOf(vartype.Int)), nil
}

func randomString(length int, charset string) string {
	result := make([]byte, length)
	for i := 0; i < length; i++ {
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
