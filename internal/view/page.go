package view

import "payboard/internal/core"

type (
	// FormView is the entry form as it should be drawn next.
	FormView struct {
		State  core.FormState
		Values core.FormInput
		Errors core.FieldErrors
	}

	// Page is everything the dashboard draws for one state of the sequence.
	Page struct {
		Title string
		Count int
		Bar   BarChartView
		Line  LineChartView
		Table TableView
		Form  FormView
	}
)

const PageTitle = "Payments"

// EditingForm is the form as first shown: defaults and no errors.
func EditingForm() FormView {
	return FormView{State: core.FormEditing, Values: core.DefaultForm()}
}

// RejectedForm keeps what the user typed and attaches the field errors.
func RejectedForm(in core.FormInput, errs core.FieldErrors) FormView {
	return FormView{State: core.FormEditing, Values: in, Errors: errs}
}

// SubmittedForm resets the fields to their defaults after an accepted
// submission.
func SubmittedForm() FormView {
	return FormView{State: core.FormSubmitted, Values: core.DefaultForm()}
}

// Error returns the message for field, or "".
func (f FormView) Error(field string) string {
	if f.Errors == nil {
		return ""
	}
	return f.Errors[field]
}

// RenderPage derives the whole dashboard from records.
func RenderPage(records []core.Record, form FormView) Page {
	return Page{
		Title: PageTitle,
		Count: len(records),
		Bar:   BarChart(records),
		Line:  LineChart(records),
		Table: Table(records),
		Form:  form,
	}
}
