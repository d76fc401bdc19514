package failure

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllErrors_JSONShape(t *testing.T) {
	te := Aggregate("valid.xml", KindValidation, []Detail{
		NewDetail("Must contain a program name", "/ClinicalDocument"),
		NewDetail("no path here", ""),
	})

	data, err := te.Payload.JSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"errors": [{
			"sourceIdentifier": "valid.xml",
			"type": "ValidationError",
			"message": "Validation errors",
			"details": [
				{"message": "Must contain a program name", "path": "/ClinicalDocument"},
				{"message": "no path here"}
			]
		}]
	}`, string(data))
}

func TestAllErrors_EmptyPayloadSerializesList(t *testing.T) {
	data, err := AllErrors{}.JSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"errors": []}`, string(data))
	assert.True(t, AllErrors{}.Empty())
}

func TestAllErrors_RoundTrip(t *testing.T) {
	want := AllErrors{Errors: []Error{{
		Type: KindValidation,
		Details: []Detail{{
			Message: "parent",
			Path:    "/a",
			Details: []Detail{{Message: "child", Path: "/a/b[1]"}},
		}},
	}}}
	data, err := want.JSON()
	require.NoError(t, err)

	got, err := ParseAllErrors(data)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = ParseAllErrors([]byte("{not json"))
	assert.Error(t, err)
}

func TestAllErrors_CountsAndMessages(t *testing.T) {
	var all AllErrors
	all.Add(Error{Details: []Detail{NewDetail("a", ""), NewDetail("b", "")}})
	all.Add(Error{Details: []Detail{NewDetail("c", "")}})

	assert.Equal(t, 3, all.DetailCount())
	assert.Equal(t, []string{"a", "b", "c"}, all.Messages())
	assert.False(t, all.Empty())
}

func TestTransformError_Message(t *testing.T) {
	one := Aggregate("x", KindValidation, []Detail{NewDetail("only", "")})
	assert.Equal(t, "transform failed: only", one.Error())

	two := Aggregate("x", KindEncode, []Detail{NewDetail("a", ""), NewDetail("b", "")})
	assert.Equal(t, "transform failed: 2 errors: a; b", two.Error())
	assert.Equal(t, KindEncode, two.Kind())
	assert.Equal(t, "Encoding errors", two.Payload.Errors[0].Message)

	assert.Equal(t, "transform failed", NewTransformError(AllErrors{}).Error())
	assert.Equal(t, Kind(""), NewTransformError(AllErrors{}).Kind())
}

func TestAsTransformError_Wrapped(t *testing.T) {
	te := Aggregate("x", KindValidation, []Detail{NewDetail("bad", "")})
	wrapped := fmt.Errorf("convert: %w", te)

	got, ok := AsTransformError(wrapped)
	require.True(t, ok)
	assert.Same(t, te, got)

	_, ok = AsTransformError(errors.New("plain"))
	assert.False(t, ok)
}

func TestFatal_FromDecodeError(t *testing.T) {
	cause := errors.New("bad date")
	de := NewDecodeError("/ClinicalDocument/component[1]", "invalid effectiveTime", cause)

	te := Fatal("doc.xml", KindDecode, de)

	assert.Equal(t, KindDecode, te.Kind())
	require.Len(t, te.Payload.Errors[0].Details, 1)
	d := te.Payload.Errors[0].Details[0]
	assert.Equal(t, "/ClinicalDocument/component[1]", d.Path)
	assert.Equal(t, "invalid effectiveTime: bad date", d.Message)

	assert.True(t, IsDecodeError(te))
	assert.ErrorIs(t, te, cause)
}

func TestFatal_PlainError(t *testing.T) {
	te := Fatal("doc.xml", KindParse, errors.New("unexpected EOF"))
	assert.Equal(t, "unexpected EOF", te.Payload.Errors[0].Details[0].Message)
	assert.Empty(t, te.Payload.Errors[0].Details[0].Path)
	assert.False(t, IsDecodeError(te))
}

func TestDecodeError_Message(t *testing.T) {
	assert.Equal(t, "decode /a: broken", NewDecodeError("/a", "broken", nil).Error())
	assert.Equal(t, "decode: broken: eof", NewDecodeError("", "broken", errors.New("eof")).Error())
}
