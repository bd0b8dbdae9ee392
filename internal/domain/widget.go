package domain

// ToggleState is the visual affordance of the unit switch
type ToggleState struct {
	Active         Unit `json:"active"`
	SliderOffsetPx int  `json:"slider_offset_px"`
}

// Transform is the card's pointer-following 3D tilt
type Transform struct {
	RotateX float64 `json:"rotate_x"`
	RotateY float64 `json:"rotate_y"`
	Scale   float64 `json:"scale"`
	CSS     string  `json:"css"`
}

// WidgetSnapshot is everything the view needs to paint the widget
type WidgetSnapshot struct {
	Display        DisplayFields  `json:"display"`
	HasRecord      bool           `json:"has_record"`
	Record         *WeatherRecord `json:"record,omitempty"`
	Input          string         `json:"input"`
	Loading        bool           `json:"loading"`
	SearchDisabled bool           `json:"search_disabled"`
	CardOpacity    float64        `json:"card_opacity"`
	Notification   *Notification  `json:"notification,omitempty"`
	Unit           Unit           `json:"unit"`
	Toggle         ToggleState    `json:"toggle"`
	Tilt           Transform      `json:"tilt"`
	AnimationPulse int            `json:"animation_pulse"`
}
