package tools

// Ident is the strong type for a fully qualified tool identifier in
// "toolkit.tool" form (e.g., "Venmo.send_money"). Use this type when
// referencing tools in maps or APIs to avoid accidental mixing with
// free-form strings.
type Ident string
