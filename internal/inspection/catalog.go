package inspection

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/cargo-inspection/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// TrailerArea 车厢检查区域定义
type TrailerArea struct {
	Area  string   `yaml:"area" json:"area"`
	Items []string `yaml:"items" json:"items"`
}

// Catalog 检查表目录（托盘车 8 项、车厢 4 区 13 项、24 个装载位）
type Catalog struct {
	PalletJack       []string      `yaml:"pallet_jack" json:"palletJack"`
	Trailer          []TrailerArea `yaml:"trailer" json:"trailer"`
	LoadingPositions int           `yaml:"loading_positions" json:"loadingPositions"`
}

var (
	catalogOnce sync.Once
	catalog     Catalog
)

// DefaultCatalog 返回内置检查表目录
func DefaultCatalog() Catalog {
	catalogOnce.Do(func() {
		if err := yaml.Unmarshal(catalogYAML, &catalog); err != nil {
			panic(fmt.Errorf("parse checklist catalog failed: %w", err))
		}
	})
	return catalog
}

// TrailerItemCount 车厢检查项总数
func (c Catalog) TrailerItemCount() int {
	total := 0
	for _, area := range c.Trailer {
		total += len(area.Items)
	}
	return total
}

// BlankPalletInspection 空白托盘车点检
func (c Catalog) BlankPalletInspection() models.PalletJackInspection {
	return models.PalletJackInspection{Checklist: make([]string, len(c.PalletJack))}
}

// BlankTrailerInspection 空白车厢检查表，描述取自目录
func (c Catalog) BlankTrailerInspection() models.TrailerInspection {
	areas := make([]models.TrailerChecklistArea, 0, len(c.Trailer))
	for _, area := range c.Trailer {
		items := make([]models.TrailerChecklistItem, 0, len(area.Items))
		for _, desc := range area.Items {
			items = append(items, models.TrailerChecklistItem{Description: desc})
		}
		areas = append(areas, models.TrailerChecklistArea{Area: area.Area, Items: items})
	}
	return models.TrailerInspection{Checklist: areas}
}

// BlankLoadingSummary 空白装载汇总（固定装载位数量）
func (c Catalog) BlankLoadingSummary() models.LoadingSummary {
	return models.LoadingSummary{Positions: make([]models.LoadingPosition, c.LoadingPositions)}
}

// AlignTrailer 按目录对齐车厢检查表
// 客户端提交的区域/条目顺序以目录为准，缺失条目补空值，描述统一使用目录文本
func (c Catalog) AlignTrailer(in models.TrailerInspection) models.TrailerInspection {
	out := c.BlankTrailerInspection()
	out.Comment = in.Comment
	for ai := range out.Checklist {
		if ai >= len(in.Checklist) {
			break
		}
		src := in.Checklist[ai].Items
		for ii := range out.Checklist[ai].Items {
			if ii < len(src) {
				out.Checklist[ai].Items[ii].Value = strings.ToLower(strings.TrimSpace(src[ii].Value))
			}
		}
	}
	return out
}

// AlignPallet 按目录对齐托盘车点检，多余条目丢弃
func (c Catalog) AlignPallet(in models.PalletJackInspection) models.PalletJackInspection {
	out := c.BlankPalletInspection()
	out.Notes = in.Notes
	for i := range out.Checklist {
		if i < len(in.Checklist) {
			out.Checklist[i] = strings.ToLower(strings.TrimSpace(in.Checklist[i]))
		}
	}
	return out
}

// AlignPositions 按目录对齐装载位
func (c Catalog) AlignPositions(in models.LoadingSummary) models.LoadingSummary {
	out := in
	out.Positions = make([]models.LoadingPosition, c.LoadingPositions)
	copy(out.Positions, in.Positions)
	return out
}
