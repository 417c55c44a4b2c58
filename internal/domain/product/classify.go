package product

// Default category slugs that mark themes and plugins.
const (
	DefaultThemeMarker  = "wp-gpl-themes"
	DefaultPluginMarker = "wp-gpl-plugins"
)

// Classification records which marker categories a product carries.
// A product may be both a theme and a plugin.
type Classification struct {
	Theme  bool
	Plugin bool
}

// Partitions returns the typed partitions the product belongs to, besides PartitionAll.
func (c Classification) Partitions() []Partition {
	var out []Partition
	if c.Theme {
		out = append(out, PartitionThemes)
	}
	if c.Plugin {
		out = append(out, PartitionPlugins)
	}
	return out
}

// Classifier assigns a Type from category slugs.
type Classifier struct {
	themeMarker  string
	pluginMarker string
}

// NewClassifier creates a Classifier. Empty markers fall back to the defaults.
func NewClassifier(themeMarker, pluginMarker string) Classifier {
	if themeMarker == "" {
		themeMarker = DefaultThemeMarker
	}
	if pluginMarker == "" {
		pluginMarker = DefaultPluginMarker
	}
	return Classifier{themeMarker: themeMarker, pluginMarker: pluginMarker}
}

// Classify sets p.Type from its categories and reports partition membership.
// A dual product is stored with TypePlugin. Reclassifying yields the same result.
func (c Classifier) Classify(p *Product) Classification {
	var cl Classification
	for _, cat := range p.Categories {
		switch cat.Slug {
		case c.themeMarker:
			cl.Theme = true
		case c.pluginMarker:
			cl.Plugin = true
		}
	}

	p.Type = TypeUnset
	if cl.Theme {
		p.Type = TypeTheme
	}
	if cl.Plugin {
		p.Type = TypePlugin
	}
	return cl
}
