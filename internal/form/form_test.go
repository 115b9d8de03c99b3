package form_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pkordes/formflow/internal/domain"
	"github.com/pkordes/formflow/internal/form"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type address struct {
	City string `form:"city" validate:"required"`
	Zip  string `form:"zip" validate:"omitempty,numeric"`
}

type person struct {
	ID      int
	Name    string     `form:"name" validate:"required,max=10"`
	Age     int        `form:"age"`
	Born    time.Time  `form:"born,date"`
	Left    *time.Time `form:"left"`
	Bio     string     `form:"bio,sanitize"`
	Address address    `form:"address"`
	Secret  string
}

func newPersonForm(t *testing.T, p *person, method string) *form.Form {
	t.Helper()
	f, err := form.New("person", p, form.Config{Action: "/people/new", Method: method})
	require.NoError(t, err)
	return f
}

func postRequest(method string, values url.Values) *http.Request {
	req := httptest.NewRequest(method, "/people/new", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func validValues() url.Values {
	return url.Values{
		"person[name]":            {"Ada"},
		"person[age]":             {"36"},
		"person[born]":            {"1815-12-10"},
		"person[address][city]":   {"London"},
		"person[address][zip]":    {"12345"},
		"person[bio]":             {"Mathematician"},
		"person[left]":            {""},
		"unrelated[name]":         {"ignored"},
		"person[Secret]":          {"not bound"},
		"person[address][street]": {"not a field"},
	}
}

// ---- New -------------------------------------------------------------------

func TestNew_rejectsNonStructPointer(t *testing.T) {
	for _, data := range []any{nil, person{}, (*person)(nil), new(int)} {
		_, err := form.New("person", data, form.Config{})
		assert.ErrorIs(t, err, domain.ErrConfiguration, "%T", data)
	}
}

func TestNew_defaults(t *testing.T) {
	f, err := form.New("person", &person{}, form.Config{})

	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, f.Config().Method)
	assert.Equal(t, form.ModeCreate, f.Config().Mode)
	assert.NotNil(t, f.Config().Translate)
	assert.Equal(t, form.NotSubmitted, f.State())
}

func TestNew_buildsTreeInDeclarationOrder(t *testing.T) {
	f := newPersonForm(t, &person{}, http.MethodPost)

	var names []string
	for _, c := range f.Children() {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"name", "age", "born", "left", "bio", "address"}, names)

	addr, ok := f.Child("address")
	require.True(t, ok)
	assert.True(t, addr.IsCompound())
	city, ok := addr.Child("city")
	require.True(t, ok)
	assert.Equal(t, "person[address][city]", city.FullName())
	assert.Equal(t, "City", city.Label())
	assert.Same(t, f, city.Root())
}

func TestNew_allocatesNilSubFormPointer(t *testing.T) {
	type wrapper struct {
		Home *address `form:"home"`
	}
	w := &wrapper{}

	_, err := form.New("w", w, form.Config{})

	require.NoError(t, err)
	assert.NotNil(t, w.Home)
}

// ---- HandleRequest ---------------------------------------------------------

func TestHandleRequest_methodMismatchLeavesFormUnsubmitted(t *testing.T) {
	f := newPersonForm(t, &person{}, http.MethodPut)

	f.HandleRequest(postRequest(http.MethodPost, validValues()))

	assert.False(t, f.IsSubmitted())
	assert.Equal(t, form.NotSubmitted, f.State())
}

func TestHandleRequest_getWithoutQueryIsNoop(t *testing.T) {
	f := newPersonForm(t, &person{}, http.MethodPost)

	f.HandleRequest(httptest.NewRequest(http.MethodGet, "/people/new", nil))

	assert.False(t, f.IsSubmitted())
}

func TestHandleRequest_noDataForThisForm(t *testing.T) {
	f := newPersonForm(t, &person{}, http.MethodPost)

	f.HandleRequest(postRequest(http.MethodPost, url.Values{"other[name]": {"x"}}))

	assert.False(t, f.IsSubmitted())
}

func TestHandleRequest_validSubmissionBindsEntity(t *testing.T) {
	p := &person{Secret: "keep"}
	f := newPersonForm(t, p, http.MethodPost)

	f.HandleRequest(postRequest(http.MethodPost, validValues()))

	require.Equal(t, form.SubmittedValid, f.State(), "errors: %v", form.CollectErrors(f).Flatten())
	assert.Equal(t, "Ada", p.Name)
	assert.Equal(t, 36, p.Age)
	assert.Equal(t, time.Date(1815, 12, 10, 0, 0, 0, 0, time.UTC), p.Born)
	assert.Nil(t, p.Left)
	assert.Equal(t, "London", p.Address.City)
	assert.Equal(t, "keep", p.Secret, "untagged fields are never bound")
}

func TestHandleRequest_putMethodIsMatchedCaseInsensitively(t *testing.T) {
	p := &person{}
	f := newPersonForm(t, p, "put")

	f.HandleRequest(postRequest(http.MethodPut, validValues()))

	assert.True(t, f.IsValid())
	assert.Equal(t, "Ada", p.Name)
}

func TestHandleRequest_getFormReadsQuery(t *testing.T) {
	p := &person{}
	f := newPersonForm(t, p, http.MethodGet)

	req := httptest.NewRequest(http.MethodGet, "/people?"+validValues().Encode(), nil)
	f.HandleRequest(req)

	assert.True(t, f.IsValid())
	assert.Equal(t, "Ada", p.Name)
}

func TestHandleRequest_malformedBodyIsInvalid(t *testing.T) {
	f := newPersonForm(t, &person{}, http.MethodPost)

	req := httptest.NewRequest(http.MethodPost, "/people/new", strings.NewReader("person%zz=1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	f.HandleRequest(req)

	assert.Equal(t, form.SubmittedInvalid, f.State())
	assert.Equal(t, []string{"The submitted data could not be read."}, f.Errors())
}

func TestHandleRequest_validationErrorsLandOnTheirNodes(t *testing.T) {
	f := newPersonForm(t, &person{}, http.MethodPost)

	values := validValues()
	values.Set("person[name]", "   ")
	values.Set("person[address][city]", "")
	f.HandleRequest(postRequest(http.MethodPost, values))

	assert.Equal(t, form.SubmittedInvalid, f.State())
	assert.Equal(t, map[string][]string{
		"name":         {"Name is required."},
		"address.city": {"City is required."},
	}, form.CollectErrors(f).Flatten())
}

func TestHandleRequest_conversionFailureReportedOnce(t *testing.T) {
	p := &person{Age: 7}
	f := newPersonForm(t, p, http.MethodPost)

	values := validValues()
	values.Set("person[age]", "abc")
	f.HandleRequest(postRequest(http.MethodPost, values))

	age, _ := f.Child("age")
	assert.Equal(t, []string{`The value "abc" is not valid.`}, age.Errors())
	assert.Equal(t, 7, p.Age, "failed conversions leave the field untouched")
	assert.Equal(t, "abc", age.View().Value, "the view keeps the submitted text")
}

func TestHandleRequest_unknownRuleUsesDefaultMessage(t *testing.T) {
	f := newPersonForm(t, &person{}, http.MethodPost)

	values := validValues()
	values.Set("person[address][zip]", "12a")
	f.HandleRequest(postRequest(http.MethodPost, values))

	assert.Equal(t, map[string][]string{
		"address.zip": {"Zip is not valid."},
	}, form.CollectErrors(f).Flatten())
}

func TestHandleRequest_sanitizesMarkedFields(t *testing.T) {
	p := &person{}
	f := newPersonForm(t, p, http.MethodPost)

	values := validValues()
	values.Set("person[bio]", "<b>Fish</b> &amp; chips<script>alert(1)</script>")
	f.HandleRequest(postRequest(http.MethodPost, values))

	require.True(t, f.IsValid())
	assert.Equal(t, "Fish & chips", p.Bio)
}

func TestHandleRequest_sanitizeDecodesEncodedMarkupBeforeStripping(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "encoded script", in: "&lt;script&gt;alert(1)&lt;/script&gt;", want: ""},
		{name: "encoded tag around text", in: "&lt;b&gt;bold&lt;/b&gt; move", want: "bold move"},
		{name: "double encoded", in: "&amp;lt;img src=x onerror=alert(1)&amp;gt;ok", want: "ok"},
		{name: "plain comparison", in: "a < b && c > d", want: "a < b && c > d"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := &person{}
			f := newPersonForm(t, p, http.MethodPost)

			values := validValues()
			values.Set("person[bio]", tc.in)
			f.HandleRequest(postRequest(http.MethodPost, values))

			require.True(t, f.IsValid())
			assert.Equal(t, tc.want, p.Bio)
			assert.NotContains(t, p.Bio, "<script")
			assert.NotContains(t, p.Bio, "<img")
		})
	}
}

func TestErr(t *testing.T) {
	t.Run("not submitted", func(t *testing.T) {
		f := newPersonForm(t, &person{}, http.MethodPost)
		assert.NoError(t, f.Err())
	})

	t.Run("valid", func(t *testing.T) {
		f := newPersonForm(t, &person{}, http.MethodPost)
		f.Submit(validValues())
		assert.NoError(t, f.Err())
	})

	t.Run("invalid", func(t *testing.T) {
		f := newPersonForm(t, &person{}, http.MethodPost)
		f.Submit(url.Values{"person[age]": {"3"}})
		assert.ErrorIs(t, f.Err(), domain.ErrValidation)
	})

	t.Run("body over limit", func(t *testing.T) {
		p := &person{Name: "Ada"}
		f := newPersonForm(t, p, http.MethodPost)

		values := validValues()
		values.Set("person[bio]", strings.Repeat("x", 256))
		req := postRequest(http.MethodPost, values)
		rec := httptest.NewRecorder()
		req.Body = http.MaxBytesReader(rec, req.Body, 64)
		f.HandleRequest(req)

		var tooLarge *http.MaxBytesError
		require.ErrorAs(t, f.Err(), &tooLarge)
		assert.Equal(t, int64(64), tooLarge.Limit)
		assert.Equal(t, form.NotSubmitted, f.State())
		assert.Empty(t, f.Errors())
		assert.Equal(t, "Ada", p.Name)
	})
}

func TestHandleRequest_missingKeysClearFields(t *testing.T) {
	left := time.Now()
	p := &person{Age: 40, Left: &left}
	f := newPersonForm(t, p, http.MethodPost)

	f.HandleRequest(postRequest(http.MethodPost, url.Values{
		"person[name]":          {"Ada"},
		"person[address][city]": {"London"},
	}))

	require.True(t, f.IsValid())
	assert.Zero(t, p.Age)
	assert.Nil(t, p.Left)
}

func TestHandleRequest_patchKeepsMissingKeys(t *testing.T) {
	p := &person{Name: "Ada", Age: 40, Address: address{City: "London"}}
	f := newPersonForm(t, p, http.MethodPatch)

	f.HandleRequest(postRequest(http.MethodPatch, url.Values{"person[age]": {"41"}}))

	require.True(t, f.IsValid())
	assert.Equal(t, "Ada", p.Name)
	assert.Equal(t, 41, p.Age)
}

func TestSubmit_customTranslator(t *testing.T) {
	translate := func(id string, params map[string]string) string {
		if id == "validation.required" {
			return "missing: " + params["%field%"]
		}
		return id
	}
	f, err := form.New("person", &person{}, form.Config{Translate: translate})
	require.NoError(t, err)

	f.Submit(url.Values{"person[address][city]": {"Paris"}})

	assert.Equal(t, map[string][]string{"name": {"missing: Name"}}, form.CollectErrors(f).Flatten())
}

func TestAddError_invalidatesSubmittedForm(t *testing.T) {
	f := newPersonForm(t, &person{}, http.MethodPost)
	f.Submit(validValues())
	require.True(t, f.IsValid())

	f.AddError("duplicate name")

	assert.False(t, f.IsValid())
	assert.Equal(t, form.SubmittedInvalid, f.State())
}

// ---- domain entities -------------------------------------------------------

func TestTripForm_endDateBeforeStartDate(t *testing.T) {
	trip := &domain.Trip{}
	f, err := form.New("trip", trip, form.Config{})
	require.NoError(t, err)

	f.Submit(url.Values{
		"trip[name]":       {"Summer Tour"},
		"trip[start_date]": {"2025-06-15"},
		"trip[end_date]":   {"2025-06-01"},
	})

	assert.Equal(t, map[string][]string{
		"end_date": {"End date must not be before Start date."},
	}, form.CollectErrors(f).Flatten())
}

func TestStopForm_nestedLocationErrors(t *testing.T) {
	stop := &domain.Stop{}
	f, err := form.New("stop", stop, form.Config{})
	require.NoError(t, err)

	f.Submit(url.Values{
		"stop[name]":                 {"Yosemite"},
		"stop[arrived_at]":           {"2025-06-02T15:00"},
		"stop[location][city]":       {""},
		"stop[location][latitude]":   {"123.5"},
		"stop[location][longitude]":  {"-119.5"},
		"stop[location][region]":     {"CA"},
		"stop[departed_at]":          {""},
		"stop[notes]":                {""},
		"stop[location][unexpected]": {"x"},
	})

	tree := form.CollectErrors(f)
	loc, ok := tree.Child("location")
	require.True(t, ok)
	assert.Equal(t, []string{"city", "latitude"}, []string{loc.Children[0].Name, loc.Children[1].Name})
	assert.Equal(t, 2, tree.Count())
	assert.Equal(t, time.Date(2025, 6, 2, 15, 0, 0, 0, time.UTC), stop.ArrivedAt)
}

// ---- View ------------------------------------------------------------------

func TestView_formatsCurrentValues(t *testing.T) {
	born := time.Date(1815, 12, 10, 0, 0, 0, 0, time.UTC)
	f, err := form.New("person", &person{Name: "Ada", Born: born}, form.Config{
		Action: "/people/1/edit",
		Method: http.MethodPut,
		Mode:   form.ModeUpdate,
	})
	require.NoError(t, err)

	v := f.View()

	assert.Equal(t, "/people/1/edit", v.Action)
	assert.Equal(t, http.MethodPut, v.Method)
	assert.Equal(t, form.ModeUpdate, v.Mode)
	assert.Equal(t, "not_submitted", v.State)
	require.Len(t, v.Fields, 6)
	assert.Equal(t, "Ada", v.Fields[0].Value)
	assert.Equal(t, "person[born]", v.Fields[2].FullName)
	assert.Equal(t, "1815-12-10", v.Fields[2].Value)
	assert.Equal(t, "", v.Fields[3].Value, "nil pointers render empty")
	assert.Len(t, v.Fields[5].Fields, 2)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "not_submitted", form.NotSubmitted.String())
	assert.Equal(t, "submitted_invalid", form.SubmittedInvalid.String())
	assert.Equal(t, "submitted_valid", form.SubmittedValid.String())
}
