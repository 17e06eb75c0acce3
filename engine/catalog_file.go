package engine

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadCatalogFile 从YAML文件加载原型目录，文件是原型数组，目录顺序即文件顺序。
// path为空时直接用内置目录。文件读不到、解析不了或校验不过都算配置错误。
func LoadCatalogFile(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取原型目录文件 %s 失败(%v): %w", path, err, ErrConfiguration)
	}

	var archetypes []Archetype
	if err := yaml.Unmarshal(data, &archetypes); err != nil {
		return nil, fmt.Errorf("解析原型目录文件 %s 失败(%v): %w", path, err, ErrConfiguration)
	}

	return NewCatalog(archetypes)
}
