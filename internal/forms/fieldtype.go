package forms

// FieldType tags one question kind in a ticket category. The set is closed:
// values outside it are rejected at the schema-validation boundary, so code
// past that boundary can treat a FieldType as trusted.
type FieldType string

const (
	FieldString      FieldType = "string"
	FieldNumber      FieldType = "number"
	FieldBoolean     FieldType = "boolean"
	FieldEnum        FieldType = "enum"
	FieldDate        FieldType = "date"
	FieldTextarea    FieldType = "textarea"
	FieldPlayers     FieldType = "players"
	FieldServer      FieldType = "server"
	FieldServerGrid  FieldType = "server-grid"
	FieldPlayersGrid FieldType = "players-grid"
)

// Widget selects the input widget a renderer should use for a field.
type Widget string

const (
	WidgetText        Widget = "text"
	WidgetTextarea    Widget = "textarea"
	WidgetNumber      Widget = "number"
	WidgetCheckbox    Widget = "checkbox"
	WidgetSelect      Widget = "select"
	WidgetCalendar    Widget = "calendar"
	WidgetCombobox    Widget = "combobox"
	WidgetServerGrid  Widget = "server-grid"
	WidgetPlayersGrid Widget = "players-grid"
)

// TypeInfo describes one entry of the field-type table.
type TypeInfo struct {
	Widget Widget
	// OptionKeys lists the option-record keys recognized for this type.
	OptionKeys []string
	// zero returns the value a fresh field is seeded with.
	zero func() any
}

// typeTable is the compiled-in registry. Not runtime-mutable.
var typeTable = map[FieldType]TypeInfo{
	FieldString:      {Widget: WidgetText, OptionKeys: []string{"minLength", "maxLength", "placeholder", "description"}, zero: zeroString},
	FieldTextarea:    {Widget: WidgetTextarea, OptionKeys: []string{"minLength", "maxLength", "placeholder", "description"}, zero: zeroString},
	FieldNumber:      {Widget: WidgetNumber, OptionKeys: []string{"min", "max", "placeholder", "description"}, zero: zeroString},
	FieldBoolean:     {Widget: WidgetCheckbox, OptionKeys: []string{"defaultValue"}, zero: func() any { return false }},
	FieldEnum:        {Widget: WidgetSelect, OptionKeys: []string{"enumOptions"}, zero: zeroString},
	FieldDate:        {Widget: WidgetCalendar, OptionKeys: []string{"minDate", "maxDate"}, zero: zeroString},
	FieldPlayers:     {Widget: WidgetCombobox, OptionKeys: []string{"min", "max"}, zero: zeroList},
	FieldServer:      {Widget: WidgetCombobox, OptionKeys: []string{}, zero: zeroString},
	FieldServerGrid:  {Widget: WidgetServerGrid, OptionKeys: []string{}, zero: zeroString},
	FieldPlayersGrid: {Widget: WidgetPlayersGrid, OptionKeys: []string{"min", "max"}, zero: zeroList},
}

func zeroString() any { return "" }
func zeroList() any   { return []string{} }

// typeOrder keeps listing deterministic (map iteration is not).
var typeOrder = []FieldType{
	FieldString, FieldNumber, FieldBoolean, FieldEnum, FieldDate,
	FieldTextarea, FieldPlayers, FieldServer, FieldServerGrid, FieldPlayersGrid,
}

// Types returns all field types in a stable order.
func Types() []FieldType {
	out := make([]FieldType, len(typeOrder))
	copy(out, typeOrder)
	return out
}

// Lookup returns the table entry for t.
func Lookup(t FieldType) (TypeInfo, bool) {
	info, ok := typeTable[t]
	return info, ok
}

// ValidType reports whether t is one of the ten supported types.
func ValidType(t FieldType) bool { _, ok := typeTable[t]; return ok }

// ZeroValue returns the seed value for a fresh field of type t:
// "" for text-like types, false for boolean, an empty list for the
// multi-select grid types. Unknown types fall back to "".
func ZeroValue(t FieldType) any {
	if info, ok := typeTable[t]; ok {
		return info.zero()
	}
	return ""
}

// WidgetFor returns the widget tag for t. The table is exhaustive over the
// closed type set; unknown types get the plain text widget so a stale reader
// still renders something.
func WidgetFor(t FieldType) Widget {
	if info, ok := typeTable[t]; ok {
		return info.Widget
	}
	return WidgetText
}
