// parser.go - Example preset and data files for namecard init.
package template

// GetExampleJSON returns a sample preset.json and data.json for namecard init.
func GetExampleJSON() (presetJSON, dataJSON string) {
	presetJSON = `{
  "meta": {
    "name": "Eid Greeting",
    "version": "1.0",
    "author": "namecard",
    "description": "Eid greeting card with the recipient's name in Arabic"
  },
  "background": {
    "source": "assets/eid.png",
    "fallback": "https://images.unsplash.com/photo-1579546929518-9e396f3cc809?w=800&q=80"
  },
  "font": {
    "path": "assets/IBMPlexSansArabic-Regular.ttf",
    "systemFonts": true
  },
  "defaults": {
    "text": "اسمك هنا",
    "fontSize": 40,
    "color": "#ffffff",
    "x": 50,
    "y": 49,
    "direction": "rtl"
  },
  "limits": { "minFontSize": 12, "maxFontSize": 150 },
  "export": { "prefix": "عيد مونتاجكو" },
  "schema": {
    "description": "Override the name and its styling via data.json",
    "fields": {
      "text": "string, Arabic name drawn on the card",
      "fontSize": "integer, 12 to 150 pixels",
      "color": "string, #rrggbb",
      "x": "number, 0 to 100 percent from the left",
      "y": "number, 0 to 100 percent from the top",
      "direction": "rtl, ltr or auto"
    }
  }
}`

	dataJSON = `{
  "text": "محمد",
  "fontSize": 56,
  "color": "#ffd700",
  "y": 60
}`
	return
}

// GetExampleTOML returns the sample preset in TOML form.
func GetExampleTOML() string {
	return `[meta]
name = "Eid Greeting"
version = "1.0"
author = "namecard"

[background]
source = "assets/eid.png"
fallback = "https://images.unsplash.com/photo-1579546929518-9e396f3cc809?w=800&q=80"

[font]
path = "assets/IBMPlexSansArabic-Regular.ttf"
system_fonts = true

[defaults]
text = "اسمك هنا"
font_size = 40
color = "#ffffff"
x = 50
y = 49
direction = "rtl"

[limits]
min_font_size = 12
max_font_size = 150

[export]
prefix = "عيد مونتاجكو"
`
}
