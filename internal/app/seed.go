package app

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/vladislavdragonenkov/restaurant/internal/domain"
	"github.com/vladislavdragonenkov/restaurant/internal/storage/memory"
)

// SeedFile — формат файла начальных данных.
//
//	tables: 14
//	menu:
//	  - name: Pasta
//	    cook_time: 12
type SeedFile struct {
	Tables int         `yaml:"tables" validate:"gt=0"`
	Menu   []seedEntry `yaml:"menu"   validate:"required,min=1,dive"`
}

type seedEntry struct {
	Name     string         `yaml:"name"      validate:"required"`
	CookTime domain.Minutes `yaml:"cook_time"`
}

var seedValidator = validator.New()

// DefaultSeedFile — встроенный зал и меню.
func DefaultSeedFile(tables int) SeedFile {
	if tables <= 0 {
		tables = defaultTableCount
	}
	return SeedFile{
		Tables: tables,
		Menu: []seedEntry{
			{Name: "Pasta", CookTime: 12},
			{Name: "Sandwich", CookTime: 5},
			{Name: "味噌カツ丼", CookTime: 15},
			{Name: "和風パフェ", CookTime: 8},
		},
	}
}

// LoadSeedFile читает и проверяет YAML с начальными данными.
func LoadSeedFile(path string) (SeedFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return SeedFile{}, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(bytes.NewReader(raw))
}

// ParseSeed разбирает YAML; неизвестные поля считаются ошибкой.
func ParseSeed(r io.Reader) (SeedFile, error) {
	var seed SeedFile

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&seed); err != nil {
		if errors.Is(err, io.EOF) {
			return SeedFile{}, errors.New("seed file is empty")
		}
		return SeedFile{}, fmt.Errorf("decode seed file: %w", err)
	}
	if err := seedValidator.Struct(seed); err != nil {
		return SeedFile{}, fmt.Errorf("invalid seed file: %w", err)
	}
	return seed, nil
}

// Seed переводит файл в записи репозиториев: столы 1..N, позиции меню по порядку с 1.
func (f SeedFile) Seed() memory.Seed {
	tables := make([]domain.TableRecord, 0, f.Tables)
	for id := 1; id <= f.Tables; id++ {
		tables = append(tables, domain.NewRecord(domain.TableID(id), domain.Table{}))
	}

	menu := make([]domain.MenuItemRecord, 0, len(f.Menu))
	for i, entry := range f.Menu {
		menu = append(menu, domain.NewRecord(domain.MenuItemID(i+1), domain.MenuItem{
			Name:     entry.Name,
			CookTime: entry.CookTime,
		}))
	}

	return memory.Seed{Tables: tables, MenuItems: menu}
}

func loadSeed(cfg Config) (SeedFile, error) {
	if cfg.SeedPath == "" {
		return DefaultSeedFile(cfg.TableCount), nil
	}
	return LoadSeedFile(cfg.SeedPath)
}
