// Package nerdfonts holds the Nerd Font glyphs used in CLI output.
package nerdfonts

// Calendar related symbols
const (
	Calendar      = "\uF073" // 
	CalendarCheck = "\uF274" // 
)

// Timer state symbols
const (
	Clock     = "\uF017" // 
	Hourglass = "\uF254" // 
	Play      = "\uF04B" // 
	Stop      = "\uF04D" // 
	History   = "\uF1DA" // 
)

// Status symbols
const (
	InfoCircle          = "\uF05A" // 
	CheckCircle         = "\uF058" // 
	ExclamationCircle   = "\uF06A" // 
	ExclamationTriangle = "\uF071" // 
	CircleDot           = "\uF192" // 
	Key                 = "\uF084" // 
	Trash               = "\uF1F8" // 
)
