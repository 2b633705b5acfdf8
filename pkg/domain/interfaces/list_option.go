package interfaces

// ListFieldOption is a functional option for filtering field definitions in List
type ListFieldOption func(*listFieldConfig)

type listFieldConfig struct {
	activeOnly bool
	group      *string
}

// WithActiveOnly excludes soft-deleted field definitions
func WithActiveOnly() ListFieldOption {
	return func(c *listFieldConfig) {
		c.activeOnly = true
	}
}

// WithGroup filters field definitions by group name
func WithGroup(group string) ListFieldOption {
	return func(c *listFieldConfig) {
		c.group = &group
	}
}

// BuildListFieldConfig builds a listFieldConfig from options
func BuildListFieldConfig(opts ...ListFieldOption) *listFieldConfig {
	cfg := &listFieldConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// ActiveOnly reports whether inactive definitions are excluded
func (c *listFieldConfig) ActiveOnly() bool {
	return c.activeOnly
}

// Group returns the group filter value, or nil if not set
func (c *listFieldConfig) Group() *string {
	return c.group
}

// ListTemplateOption is a functional option for filtering templates in List
type ListTemplateOption func(*listTemplateConfig)

type listTemplateConfig struct {
	activeOnly bool
	industry   *string
}

// WithActiveTemplatesOnly excludes inactive templates
func WithActiveTemplatesOnly() ListTemplateOption {
	return func(c *listTemplateConfig) {
		c.activeOnly = true
	}
}

// WithIndustry filters templates by industry
func WithIndustry(industry string) ListTemplateOption {
	return func(c *listTemplateConfig) {
		c.industry = &industry
	}
}

// BuildListTemplateConfig builds a listTemplateConfig from options
func BuildListTemplateConfig(opts ...ListTemplateOption) *listTemplateConfig {
	cfg := &listTemplateConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// ActiveOnly reports whether inactive templates are excluded
func (c *listTemplateConfig) ActiveOnly() bool {
	return c.activeOnly
}

// Industry returns the industry filter value, or nil if not set
func (c *listTemplateConfig) Industry() *string {
	return c.industry
}
