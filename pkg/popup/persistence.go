package popup

import (
	"fmt"

	"github.com/entrhq/pagechat/pkg/config"
	"github.com/entrhq/pagechat/pkg/types"
)

// ConfigPersistence stores popup state in the settings and session sections
// of a config manager, saving the store after every change.
type ConfigPersistence struct {
	manager  *config.Manager
	settings *config.SettingsSection
	session  *config.SessionSection
}

// NewConfigPersistence returns a persistence backed by manager, which must
// have the settings and session sections registered.
func NewConfigPersistence(manager *config.Manager) (*ConfigPersistence, error) {
	settingsSection, ok := manager.GetSection(config.SectionIDSettings)
	if !ok {
		return nil, fmt.Errorf("config section %q not registered", config.SectionIDSettings)
	}
	settings, ok := settingsSection.(*config.SettingsSection)
	if !ok {
		return nil, fmt.Errorf("config section %q has unexpected type %T", config.SectionIDSettings, settingsSection)
	}

	sessionSection, ok := manager.GetSection(config.SectionIDSession)
	if !ok {
		return nil, fmt.Errorf("config section %q not registered", config.SectionIDSession)
	}
	session, ok := sessionSection.(*config.SessionSection)
	if !ok {
		return nil, fmt.Errorf("config section %q has unexpected type %T", config.SectionIDSession, sessionSection)
	}

	return &ConfigPersistence{
		manager:  manager,
		settings: settings,
		session:  session,
	}, nil
}

func (p *ConfigPersistence) LoadSettings() (types.Settings, error) {
	return p.settings.Get(), nil
}

func (p *ConfigPersistence) SaveSettings(settings types.Settings) error {
	if err := p.settings.Set(settings); err != nil {
		return err
	}
	return p.manager.SaveAll()
}

func (p *ConfigPersistence) LoadSession() (types.SessionMemory, error) {
	return p.session.Get(), nil
}

func (p *ConfigPersistence) SaveLastQuestion(question string) error {
	p.session.SetLastQuestion(question)
	return p.manager.SaveAll()
}

func (p *ConfigPersistence) SaveLastResponse(response string) error {
	p.session.SetLastResponse(response)
	return p.manager.SaveAll()
}

func (p *ConfigPersistence) ClearSession() error {
	p.session.Clear()
	return p.manager.SaveAll()
}
