package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glesirok/selexpr/pkg/dataset"
	"github.com/glesirok/selexpr/pkg/dispatch"
	"github.com/glesirok/selexpr/pkg/index"
	"gopkg.in/yaml.v3"
)

// Processor 对一个数据文件执行选择
type Processor struct {
	quantity   string
	dispatcher *dispatch.Dispatcher[*View]
}

// NewProcessor 创建处理器，数据在每次执行时从文件读取
func NewProcessor(datasetFile string, opts ...index.Option) (*Processor, error) {
	ds, err := dataset.LoadFromFile(datasetFile)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}

	access := dispatch.NewAccess[*View](ds.Quantity, &fileOpener{path: datasetFile, opts: opts})
	return &Processor{
		quantity:   ds.Quantity,
		dispatcher: dispatch.New[*View](access, ds.Catalog()),
	}, nil
}

// FromSource 创建只包含一个已加载数据源的处理器，选择中不能指定数据源
func FromSource(ds *dataset.Dataset, name string, opts ...index.Option) (*Processor, error) {
	view, _, err := openSource(ds.Quantity, ds, name, opts)
	if err != nil {
		return nil, err
	}

	return &Processor{
		quantity:   ds.Quantity,
		dispatcher: dispatch.New[*View](dispatch.NewStatic(ds.Quantity, view), ds.Catalog()),
	}, nil
}

// Quantity 返回量的名字
func (p *Processor) Quantity() string {
	return p.quantity
}

// Read 读取选择对应的数据
func (p *Processor) Read(ctx context.Context, selection string) (any, error) {
	return p.dispatcher.Run(ctx, ReadOperation, dispatch.Args(selection))
}

// Labels 返回选择对应的显示名称
func (p *Processor) Labels(ctx context.Context, selection string) (any, error) {
	return p.dispatcher.Run(ctx, LabelsOperation, dispatch.Args(selection))
}

// Selections 返回可以选择的数据源
func (p *Processor) Selections() map[string][]string {
	return p.dispatcher.Selections()
}

// QueryFile 表示查询文件
type QueryFile struct {
	Queries []string `yaml:"queries"`
}

// Result 是一次查询的结果
type Result struct {
	Selection string `yaml:"selection"`
	Value     any    `yaml:"value"`
}

// ResultFile 表示输出文件
type ResultFile struct {
	Quantity string   `yaml:"quantity"`
	Results  []Result `yaml:"results"`
}

// Run 依次执行查询
func (p *Processor) Run(ctx context.Context, queries []string) (*ResultFile, error) {
	out := &ResultFile{Quantity: p.quantity}
	for _, query := range queries {
		fmt.Printf("Processing: %s\n", query)
		value, err := p.Read(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("query %q: %w", query, err)
		}
		out.Results = append(out.Results, Result{Selection: query, Value: value})
	}
	return out, nil
}

// ProcessFile 执行查询文件中的所有查询，把结果写到 outputPath
func (p *Processor) ProcessFile(ctx context.Context, queryPath, outputPath string, dryRun bool) error {
	data, err := os.ReadFile(queryPath)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	var queries QueryFile
	if err := yaml.Unmarshal(data, &queries); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}

	results, err := p.Run(ctx, queries.Queries)
	if err != nil {
		return err
	}

	output, err := Encode(results)
	if err != nil {
		return err
	}

	if dryRun {
		fmt.Printf("=== Dry-run: %s ===\n", queryPath)
		fmt.Println(string(output))
		fmt.Println()
		return nil
	}

	if err := os.WriteFile(outputPath, output, 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// ResultSuffix 是 ProcessDirectory 写出的结果文件的后缀
const ResultSuffix = ".result.yaml"

// ProcessDirectory 批量执行目录下的所有查询文件
// 结果写到 outputDir 中相同的相对路径，outputDir 为空时写在查询文件旁边
func (p *Processor) ProcessDirectory(ctx context.Context, inputDir, outputDir string, dryRun bool) error {
	// 确保输出目录存在
	if !dryRun && outputDir != "" {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	return filepath.Walk(inputDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// 只处理 .yaml 和 .yml 文件，跳过结果文件
		if info.IsDir() || strings.HasSuffix(path, ResultSuffix) ||
			(!strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml")) {
			return nil
		}

		relPath, err := filepath.Rel(inputDir, path)
		if err != nil {
			return err
		}
		relPath = strings.TrimSuffix(relPath, filepath.Ext(relPath)) + ResultSuffix

		outputPath := filepath.Join(filepath.Dir(path), filepath.Base(relPath))
		if outputDir != "" {
			outputPath = filepath.Join(outputDir, relPath)
			if !dryRun {
				if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
					return fmt.Errorf("create output dir: %w", err)
				}
			}
		}

		fmt.Printf("Processing: %s\n", path)
		if err := p.ProcessFile(ctx, path, outputPath, dryRun); err != nil {
			return fmt.Errorf("process %s: %w", path, err)
		}
		return nil
	})
}

// Encode 序列化为 YAML（2 空格缩进）
func Encode(v any) ([]byte, error) {
	var buf strings.Builder
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}
	return []byte(buf.String()), nil
}
