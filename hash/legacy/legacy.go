// Package legacy computes the MD5-based message definition and hash that
// ROS1 connection headers and bag files carry, walking a type store's
// dependency graph and substituting already-computed child hashes into the
// parent's hash text.
package legacy

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ternaris-go/typesys/diag"
	"github.com/ternaris-go/typesys/msgdef"
)

// ROSVersion selects ROS1 or ROS2 legacy-hash conventions. ROS1 rewrites
// builtin_interfaces/msg/{Time,Duration} back to the "time"/"duration"
// short names and injects a synthetic "uint32 seq" as the first field of
// std_msgs/msg/Header; ROS2 does neither.
type ROSVersion int

const (
	ROS1 ROSVersion = 1
	ROS2 ROSVersion = 2
)

// Store is the read side of typestore.Store this package depends on.
type Store interface {
	Get(typename string) (msgdef.Message, error)
}

type subdef struct {
	deftext string
	hash    string
}

// subdefSet memoizes gendefhash results per referenced type while
// remembering first-encounter order, so Generate's trailing subdef blocks
// come out in deterministic, first-reference order rather than Go's
// randomized map iteration order.
type subdefSet struct {
	byName map[string]*subdef
	order  []string
}

func newSubdefSet() *subdefSet {
	return &subdefSet{byName: make(map[string]*subdef)}
}

// Generate returns the canonical message definition text (the message's own
// body followed by a "=====...\nMSG: name\n..." block per transitively
// referenced message type) and its MD5 hash, in the style ROS1 connection
// headers and bag file metadata use.
func Generate(typename string, store Store, version ROSVersion, logger diag.Logger) (string, string, error) {
	subdefs := newSubdefSet()
	deftext, hash, err := gendefhash(typename, store, subdefs, version)
	if err != nil {
		return "", "", err
	}

	var b strings.Builder
	b.WriteString(deftext)
	for _, name := range subdefs.order {
		denorm, err := denormalize(name)
		if err != nil {
			return "", "", err
		}
		fmt.Fprintf(&b, "%s\nMSG: %s\n%s", strings.Repeat("=", 80), denorm, subdefs.byName[name].deftext)
	}

	logger.Debug("generated legacy hash", map[string]interface{}{"type": typename, "hash": hash})
	return b.String(), hash, nil
}

func timeDurationAliases(version ROSVersion) map[string]string {
	if version != ROS1 {
		return nil
	}
	return map[string]string{
		msgdef.TimeFQN:     "time",
		msgdef.DurationFQN: "duration",
	}
}

func gendefhash(typename string, store Store, subdefs *subdefSet, version ROSVersion) (string, string, error) {
	typemap := timeDurationAliases(version)

	msg, err := store.Get(typename)
	if err != nil {
		return "", "", err
	}

	var deftext, hashtext []string

	for _, c := range msg.Constants {
		stripped := strings.TrimRight(c.Name, "_")
		line := fmt.Sprintf("%s %s=%s", c.Base, stripped, constantText(c))
		deftext = append(deftext, line)
		hashtext = append(hashtext, line)
	}

	for _, f := range msg.Fields {
		if f.Name == "structure_needs_at_least_one_member" {
			continue
		}
		stripped := strings.TrimRight(f.Name, "_")
		switch f.Field.Kind {
		case msgdef.FieldBase:
			argname := baseArgName(f.Field.Base, f.Field.StringBound)
			line := fmt.Sprintf("%s %s", argname, stripped)
			deftext = append(deftext, line)
			hashtext = append(hashtext, line)

		case msgdef.FieldName:
			subname := f.Field.Name
			if alias, ok := typemap[subname]; ok {
				line := fmt.Sprintf("%s %s", alias, stripped)
				deftext = append(deftext, line)
				hashtext = append(hashtext, line)
				continue
			}
			sub, err := resolveSubdef(subname, store, subdefs, version)
			if err != nil {
				return "", "", err
			}
			denorm, err := denormalize(subname)
			if err != nil {
				return "", "", err
			}
			deftext = append(deftext, fmt.Sprintf("%s %s", denorm, stripped))
			hashtext = append(hashtext, fmt.Sprintf("%s %s", sub.hash, stripped))

		case msgdef.FieldArray, msgdef.FieldSequence:
			count := ""
			if f.Field.Kind == msgdef.FieldArray {
				count = strconv.Itoa(f.Field.Length)
			} else if f.Field.Bound != 0 {
				count = "<=" + strconv.Itoa(f.Field.Bound)
			}
			inner := f.Field.Inner
			switch inner.Kind {
			case msgdef.FieldBase:
				argname := baseArgName(inner.Base, inner.StringBound)
				line := fmt.Sprintf("%s[%s] %s", argname, count, stripped)
				deftext = append(deftext, line)
				hashtext = append(hashtext, line)
			case msgdef.FieldName:
				if alias, ok := typemap[inner.Name]; ok {
					line := fmt.Sprintf("%s[%s] %s", alias, count, stripped)
					deftext = append(deftext, line)
					hashtext = append(hashtext, line)
					continue
				}
				sub, err := resolveSubdef(inner.Name, store, subdefs, version)
				if err != nil {
					return "", "", err
				}
				denorm, err := denormalize(inner.Name)
				if err != nil {
					return "", "", err
				}
				deftext = append(deftext, fmt.Sprintf("%s[%s] %s", denorm, count, stripped))
				hashtext = append(hashtext, fmt.Sprintf("%s[%s] %s", sub.hash, count, stripped))
			default:
				return "", "", diag.NewInvariantViolation("array/sequence inner field is itself an array or sequence", typename)
			}
		}
	}

	if version == ROS1 && typename == msgdef.HeaderFQN {
		deftext = append([]string{"uint32 seq"}, deftext...)
		hashtext = append([]string{"uint32 seq"}, hashtext...)
	}

	deftext = append(deftext, "")
	sum := md5.Sum([]byte(strings.Join(hashtext, "\n")))
	return strings.Join(deftext, "\n"), hex.EncodeToString(sum[:]), nil
}

// resolveSubdef memoizes gendefhash per referenced type. A sentinel entry is
// inserted before recursing so a cyclic type graph is detected as an
// InvariantViolation instead of infinite recursion.
func resolveSubdef(name string, store Store, subdefs *subdefSet, version ROSVersion) (*subdef, error) {
	if existing, ok := subdefs.byName[name]; ok {
		if existing.deftext == "" && existing.hash == "" {
			return nil, diag.NewInvariantViolation("cyclic type graph detected while computing legacy hash", name)
		}
		return existing, nil
	}
	sentinel := &subdef{}
	subdefs.byName[name] = sentinel
	subdefs.order = append(subdefs.order, name)
	deftext, hash, err := gendefhash(name, store, subdefs, version)
	if err != nil {
		return nil, err
	}
	sentinel.deftext, sentinel.hash = deftext, hash
	return sentinel, nil
}

func baseArgName(base msgdef.BaseName, stringBound int) string {
	switch {
	case base == msgdef.Octet:
		return "byte"
	case base == msgdef.String && stringBound != 0:
		return fmt.Sprintf("string<=%d", stringBound)
	default:
		return string(base)
	}
}

func constantText(c msgdef.Constant) string {
	switch c.Kind {
	case msgdef.ConstInt:
		return strconv.FormatInt(c.Int, 10)
	case msgdef.ConstFloat:
		return pyFloatString(c.Float)
	case msgdef.ConstBool:
		if c.Bool {
			return "True"
		}
		return "False"
	default:
		return c.String
	}
}

// pyFloatString renders f the way Python's str(float) does: shortest
// round-trip digits, fixed notation with a trailing ".0" for whole numbers
// unless the decimal exponent falls outside (-4, 16], in which case
// scientific notation with a signed two-digit-minimum exponent is used
// instead. The legacy hash text embeds this exact rendering (msg.py's
// gendefhash interpolates float constants via Python's str()), so matching
// strconv's 'g' formatting (which omits ".0" and picks different notation
// thresholds) would silently diverge the MD5 from the reference.
func pyFloatString(f float64) string {
	if math.IsNaN(f) {
		return "nan"
	}
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}

	neg := math.Signbit(f)
	af := math.Abs(f)

	sci := strconv.FormatFloat(af, 'e', -1, 64)
	mantissa, expPart, _ := strings.Cut(sci, "e")
	exp, _ := strconv.Atoi(expPart)
	digits := strings.Replace(mantissa, ".", "", 1)
	decpt := exp + 1

	var out string
	if decpt > -4 && decpt <= 16 {
		out = pyFixedDigits(digits, decpt)
	} else {
		out = pyScientificDigits(digits, decpt)
	}
	if neg {
		out = "-" + out
	}
	return out
}

func pyFixedDigits(digits string, decpt int) string {
	switch {
	case decpt <= 0:
		return "0." + strings.Repeat("0", -decpt) + digits
	case decpt >= len(digits):
		return digits + strings.Repeat("0", decpt-len(digits)) + ".0"
	default:
		return digits[:decpt] + "." + digits[decpt:]
	}
}

func pyScientificDigits(digits string, decpt int) string {
	mantissa := digits[:1]
	if len(digits) > 1 {
		mantissa += "." + digits[1:]
	}
	exp := decpt - 1
	sign := "+"
	if exp < 0 {
		sign = "-"
		exp = -exp
	}
	expDigits := strconv.Itoa(exp)
	if len(expDigits) < 2 {
		expDigits = "0" + expDigits
	}
	return mantissa + "e" + sign + expDigits
}

func denormalize(typename string) (string, error) {
	parts := strings.Split(typename, "/")
	if len(parts) < 2 || parts[len(parts)-2] != "msg" {
		return "", diag.NewInvariantViolation("typename is missing the /msg/ path segment", typename)
	}
	out := make([]string, 0, len(parts)-1)
	out = append(out, parts[:len(parts)-2]...)
	out = append(out, parts[len(parts)-1])
	return strings.Join(out, "/"), nil
}
