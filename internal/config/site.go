package config

import "maps"

// FormConfig holds the settings used when submitting one form page.
type FormConfig struct {
	// Values are field values set before the form is submitted, keyed by
	// field name. Checkbox values accept on/true/1/yes to check the box.
	Values map[string]string `yaml:"values,omitempty"`

	// Cookie is sent with every request to the page and its endpoint.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests.
	Headers map[string]string `yaml:"headers,omitempty"`

	// SubmitURL overrides the endpoint discovered in the page.
	SubmitURL string `yaml:"submitUrl,omitempty"`
}

// File represents the structure of the .formbuilder configuration file.
type File struct {
	// Forms maps page URLs to their settings.
	Forms map[string]FormConfig `yaml:"forms,omitempty"`

	// Defaults applies to every page unless overridden in Forms.
	Defaults FormConfig `yaml:"defaults,omitempty"`
}

// GetFormConfig returns the settings for pageURL: the defaults overridden
// by the page's own entry. Values and headers maps are merged.
func (cf *File) GetFormConfig(pageURL string) FormConfig {
	result := FormConfig{
		Values:    maps.Clone(cf.Defaults.Values),
		Cookie:    cf.Defaults.Cookie,
		Headers:   maps.Clone(cf.Defaults.Headers),
		SubmitURL: cf.Defaults.SubmitURL,
	}

	formConfig, ok := cf.Forms[pageURL]
	if !ok {
		return result
	}

	if formConfig.Cookie != "" {
		result.Cookie = formConfig.Cookie
	}
	if formConfig.SubmitURL != "" {
		result.SubmitURL = formConfig.SubmitURL
	}
	if len(formConfig.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(formConfig.Headers))
		}
		maps.Copy(result.Headers, formConfig.Headers)
	}
	if len(formConfig.Values) > 0 {
		if result.Values == nil {
			result.Values = make(map[string]string, len(formConfig.Values))
		}
		maps.Copy(result.Values, formConfig.Values)
	}

	return result
}
