package services

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"persona_analyzer/config"
	"persona_analyzer/engine"
	"persona_analyzer/logger"
	"persona_analyzer/models"
	"persona_analyzer/repository"
	"persona_analyzer/utils"
)

// 批量写库的分块大小
const importChunkSize = 500

// 数据集里出现过的时间格式，逐一尝试
var recordTimeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
}

// ImportDataset 导入notebook记录CSV和可选的预计算画像CSV。
// 文件checksum和上次导入相同时跳过，truncate=true时清空旧数据后全量重导。
func ImportDataset(cfg *config.Config, catalog *engine.Catalog, truncate bool) (*models.ImportResult, error) {
	path := cfg.Dataset.RecordsFile
	if path == "" {
		return nil, fmt.Errorf("未配置数据集路径: %w", engine.ErrInvalidInput)
	}

	start := time.Now()

	checksum, err := utils.CalculateFileMD5(path)
	if err != nil {
		return nil, fmt.Errorf("计算数据集checksum失败: %v", err)
	}

	// 同一文件已导入过则直接跳过
	if !truncate {
		prev, err := repository.FindImportByChecksum(checksum)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		if prev != nil {
			logger.Info("数据集文件未变化，跳过导入",
				"file", path, "checksum", checksum, "batch_id", prev.BatchID)
			return &models.ImportResult{
				BatchID:    prev.BatchID,
				FilePath:   path,
				Checksum:   checksum,
				Total:      prev.Total,
				Imported:   0,
				Skipped:    prev.Total,
				Personas:   0,
				DurationMs: time.Since(start).Milliseconds(),
			}, nil
		}
	}

	if truncate {
		logger.Warn("清空历史数据后全量重导", "file", path)
		if err := repository.TruncateRecords(); err != nil {
			return nil, fmt.Errorf("清空记录表失败: %v", err)
		}
		if err := repository.TruncatePersonas(); err != nil {
			return nil, fmt.Errorf("清空画像表失败: %v", err)
		}
		if err := repository.TruncateTimeline(); err != nil {
			return nil, fmt.Errorf("清空时间线表失败: %v", err)
		}
	}

	batchID := uuid.NewString()
	logger.Info("开始导入数据集", "file", path, "batch_id", batchID)

	total, imported, skipped, err := importRecordsCSV(path)
	if err != nil {
		return nil, err
	}

	personas := 0
	if cfg.Dataset.PersonasFile != "" {
		personas, err = importPersonasCSV(cfg.Dataset.PersonasFile, catalog)
		if err != nil {
			return nil, err
		}
	}

	di := &models.DatasetImport{
		BatchID:  batchID,
		FilePath: path,
		Checksum: checksum,
		Total:    total,
		Imported: imported,
		Skipped:  skipped,
		Personas: personas,
	}
	if err := repository.InsertImport(di); err != nil {
		return nil, fmt.Errorf("写入导入台账失败: %v", err)
	}

	logger.Info("数据集导入完成",
		"batch_id", batchID,
		"total", total,
		"imported", imported,
		"skipped", skipped,
		"personas", personas,
		"cost", time.Since(start).String(),
	)

	return &models.ImportResult{
		BatchID:    batchID,
		FilePath:   path,
		Checksum:   checksum,
		Total:      total,
		Imported:   imported,
		Skipped:    skipped,
		Personas:   personas,
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}

// ImportOnStartup 启动时记录表为空且配置了自动导入则导一次
func ImportOnStartup(cfg *config.Config, catalog *engine.Catalog) error {
	if !cfg.Dataset.AutoImport {
		return nil
	}

	count, err := repository.CountRecords()
	if err != nil {
		return err
	}
	if count > 0 {
		logger.Info("记录表已有数据，跳过启动导入", "count", count)
		return nil
	}

	_, err = ImportDataset(cfg, catalog, false)
	return err
}

// importRecordsCSV 逐行解析notebook记录，无效行跳过不中断。
// 返回: 数据行总数, 实际入库数, 跳过行数, 错误。
func importRecordsCSV(path string) (int, int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("打开数据集文件失败: %v", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // 列数不齐的行留给字段校验处理

	header, err := reader.Read()
	if err != nil {
		return 0, 0, 0, fmt.Errorf("数据集文件没有表头: %w", engine.ErrInvalidInput)
	}

	col := headerIndex(header)
	for _, required := range models.RequiredRecordFields {
		if _, ok := col[required]; !ok {
			return 0, 0, 0, fmt.Errorf("数据集缺少必要列 %s: %w", required, engine.ErrInvalidInput)
		}
	}

	total, imported, skipped := 0, 0, 0
	batch := make([]models.NotebookRecord, 0, importChunkSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := repository.InsertRecordBatch(batch)
		if err != nil {
			return fmt.Errorf("写入记录失败: %v", err)
		}
		imported += n
		batch = batch[:0]
		return nil
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		total++

		rec, err := parseRecordRow(col, row)
		if err != nil {
			skipped++
			logger.Debug("跳过无效记录行", "line", total, "error", err)
			continue
		}
		batch = append(batch, rec)

		if len(batch) >= importChunkSize {
			if err := flush(); err != nil {
				return total, imported, skipped, err
			}
		}
	}

	if err := flush(); err != nil {
		return total, imported, skipped, err
	}
	return total, imported, skipped, nil
}

// parseRecordRow 解析单行记录，缺必要字段或时间解析失败视为无效行
func parseRecordRow(col map[string]int, row []string) (models.NotebookRecord, error) {
	get := func(name string) string {
		if i, ok := col[name]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	uid := get("AuthorUserId")
	notebookID := get("NotebookId")
	created := get("CreationDate")
	if uid == "" || notebookID == "" || created == "" {
		return models.NotebookRecord{}, fmt.Errorf("缺少必要字段")
	}

	ts, err := parseRecordTime(created)
	if err != nil {
		return models.NotebookRecord{}, err
	}

	return models.NotebookRecord{
		UserID:     uid,
		NotebookID: notebookID,
		Title:      get("Title"),
		CreatedAt:  ts,
		Category:   engine.NormalizeTag(get("Category")),
		Votes:      atoiSafe(get("Votes")),
		Forks:      atoiSafe(get("Forks")),
		Views:      atoiSafe(get("Views")),
		CellCount:  atoiSafe(get("CellCount")),
		Language:   get("Language"),
		Medal:      strings.ToLower(get("Medal")),
	}, nil
}

// importPersonasCSV 导入预计算画像表，这些用户后续分析时不再打分
func importPersonasCSV(path string, catalog *engine.Catalog) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("打开画像文件失败: %v", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("画像文件没有表头: %w", engine.ErrInvalidInput)
	}

	col := headerIndex(header)
	for _, required := range []string{"AuthorUserId", "Persona"} {
		if _, ok := col[required]; !ok {
			return 0, fmt.Errorf("画像文件缺少必要列 %s: %w", required, engine.ErrInvalidInput)
		}
	}

	count := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		get := func(name string) string {
			if i, ok := col[name]; ok && i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}

		uid := get("AuthorUserId")
		rawPersona := get("Persona")
		if uid == "" || rawPersona == "" {
			continue
		}

		stats := &models.StatsView{
			TotalNotebooks:    atoiSafe(get("TotalNotebooks")),
			TotalVotes:        atoiSafe(get("TotalVotes")),
			TotalViews:        atoiSafe(get("TotalViews")),
			AvgCells:          atofSafe(get("AvgNotebookLength")),
			MostVotedNotebook: get("MostVotedNotebook"),
			MostVotes:         atoiSafe(get("MostVotes")),
			MostActiveMonth:   get("MostActiveMonth"),
			GoldMedals:        atoiSafe(get("GoldMedals")),
			SilverMedals:      atoiSafe(get("SilverMedals")),
			BronzeMedals:      atoiSafe(get("BronzeMedals")),
		}
		topics := splitTopics(get("RecommendedTopics"))

		statsJSON, _ := json.Marshal(stats)
		topicsJSON, _ := json.Marshal(topics)

		p := &models.UserPersona{
			UserID:      uid,
			Persona:     normalizePersonaLabel(catalog, rawPersona),
			Confidence:  0, // 预计算画像没有打分过程，不伪造置信度
			Stats:       string(statsJSON),
			Topics:      string(topicsJSON),
			Source:      models.PersonaSourceImported,
			GeneratedAt: time.Now(),
		}
		if err := repository.UpsertPersona(p); err != nil {
			return count, fmt.Errorf("写入预计算画像失败 user_id=%s: %v", uid, err)
		}
		count++
	}

	return count, nil
}

// headerIndex 表头列名 -> 下标
func headerIndex(header []string) map[string]int {
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	return col
}

// parseRecordTime 逐一尝试支持的时间格式
func parseRecordTime(value string) (time.Time, error) {
	for _, layout := range recordTimeLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("无法解析时间 %q", value)
}

// normalizePersonaLabel 归一化画像标签。数据集里的标签常带emoji前缀
// （如"📊 EDA-Focused"），剥掉前缀后再和目录比对；目录外的标签保留原样。
func normalizePersonaLabel(catalog *engine.Catalog, raw string) string {
	label := strings.TrimSpace(raw)
	if label == "" {
		return label
	}
	if _, ok := catalog.Find(label); ok {
		return label
	}

	stripped := strings.TrimLeftFunc(label, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	stripped = strings.TrimSpace(stripped)
	if stripped != "" {
		return stripped
	}
	return label
}

// splitTopics 逗号分隔的推荐主题列表，去重去空
func splitTopics(raw string) []string {
	if raw == "" {
		return []string{}
	}
	return utils.DeduplicateSlice(strings.Split(raw, ","))
}

func atoiSafe(s string) int {
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	// 部分数据集把整数导出成了"12.0"这种形式
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

func atofSafe(s string) float64 {
	if s == "" {
		return 0
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return 0
}
