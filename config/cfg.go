package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	// TypographyConfig keeps point measurements shared by both output
	// backends so caption appearance stays consistent between formats.
	TypographyConfig struct {
		FontFamily         string  `yaml:"font_family" validate:"required"`
		BodySize           float64 `yaml:"body_size" validate:"gt=0"`
		TitleSize          float64 `yaml:"title_size" validate:"gt=0"`
		AuthorSize         float64 `yaml:"author_size" validate:"gt=0"`
		AffiliationSize    float64 `yaml:"affiliation_size" validate:"gt=0"`
		SectionSize        float64 `yaml:"section_size" validate:"gt=0"`
		CaptionSize        float64 `yaml:"caption_size" validate:"gt=0"`
		EquationSize       float64 `yaml:"equation_size" validate:"gt=0"`
		EquationNumberSize float64 `yaml:"equation_number_size" validate:"gt=0"`
		LineSpacing        float64 `yaml:"line_spacing" validate:"gt=0"`
		CaptionSpaceBefore float64 `yaml:"caption_space_before" validate:"gte=0"`
		CaptionSpaceAfter  float64 `yaml:"caption_space_after" validate:"gte=0"`
		ImageSpaceBefore   float64 `yaml:"image_space_before" validate:"gte=0"`
		ImageSpaceAfter    float64 `yaml:"image_space_after" validate:"gte=0"`
	}

	// PageConfig describes fixed-layout page geometry in points.
	PageConfig struct {
		Width  float64 `yaml:"width" validate:"gt=0"`
		Height float64 `yaml:"height" validate:"gt=0"`
		Margin float64 `yaml:"margin" validate:"gt=0"`
	}

	ImagesConfig struct {
		Resize                ImageResizeMode `yaml:"resize" validate:"gte=0"`
		ScaleFactor           float64         `yaml:"scale_factor" validate:"gte=0.0"`
		RemovePNGTransparency bool            `yaml:"remove_png_transparency"`
		Optimize              bool            `yaml:"optimize"`
		JPEGQuality           int             `yaml:"jpeg_quality_level" validate:"min=40,max=100"`
		SmallWidth            float64         `yaml:"small_width" validate:"gt=0"`
		MediumWidth           float64         `yaml:"medium_width" validate:"gt=0"`
		LargeWidth            float64         `yaml:"large_width" validate:"gt=0"`
	}

	EquationsConfig struct {
		// HighFidelity enables the MathML conversion path. The Unicode
		// approximation is always computed regardless.
		HighFidelity bool `yaml:"high_fidelity"`
	}

	// PDFServiceConfig describes the external DOCX to PDF conversion
	// service used as the last fallback tier. Empty URL disables the tier.
	PDFServiceConfig struct {
		URL        string       `yaml:"url" validate:"omitempty,url"`
		APIKey     SecretString `yaml:"api_key"`
		TimeoutSec int          `yaml:"timeout_sec" validate:"min=1,max=600"`
	}

	DocumentConfig struct {
		FixZip                bool             `yaml:"fix_zip"`
		OutputNameTemplate    string           `yaml:"output_name_template"`
		FileNameTransliterate bool             `yaml:"file_name_transliterate"`
		Typography            TypographyConfig `yaml:"typography"`
		Page                  PageConfig       `yaml:"page"`
		Images                ImagesConfig     `yaml:"images"`
		Equations             EquationsConfig  `yaml:"equations"`
		PDFService            PDFServiceConfig `yaml:"pdf_service"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Document  DocumentConfig `yaml:"document"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above, alternative is to use struct
	// field name and reflection which I want to avoid for now
	OutputNameTemplateFieldName TemplateFieldName = "output_name_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
