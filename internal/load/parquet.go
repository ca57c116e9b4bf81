package load

import (
	"bytes"
	"fmt"

	"github.com/segmentio/parquet-go"

	"github.com/alecacerestel/AppASO/internal/schema"
)

// Parquet row shapes, one per data type. Missing numerics map to nil
// pointers so gaps survive the round trip instead of turning into zeros.

type keywordsParquetRow struct {
	Date        string   `parquet:"date"`
	Rank1       *float64 `parquet:"rank_1,optional"`
	Rank2to3    *float64 `parquet:"rank_2_3,optional"`
	Rank4to10   *float64 `parquet:"rank_4_10,optional"`
	Rank11to30  *float64 `parquet:"rank_11_30,optional"`
	Rank31to100 *float64 `parquet:"rank_31_100,optional"`
	Rank100Plus *float64 `parquet:"rank_100_plus,optional"`
	Platform    string   `parquet:"platform"`
	Stage       string   `parquet:"stage"`
}

type installsParquetRow struct {
	Date     string   `parquet:"date"`
	Installs *float64 `parquet:"installs,optional"`
	Platform string   `parquet:"platform"`
	Stage    string   `parquet:"stage"`
}

type usersParquetRow struct {
	Date        string   `parquet:"date"`
	ActiveUsers *float64 `parquet:"active_users,optional"`
	Platform    string   `parquet:"platform"`
	Notes       string   `parquet:"notes"`
	Stage       string   `parquet:"stage"`
}

func encodeParquet(table *schema.Table) ([]byte, error) {
	switch table.Type {
	case schema.Keywords:
		rows := make([]keywordsParquetRow, len(table.Rows))
		for i, r := range table.Rows {
			rows[i] = keywordsParquetRow{
				Date:        schema.FormatDate(r.Date),
				Rank1:       cellPtr(r.Fields[schema.ColRank1]),
				Rank2to3:    cellPtr(r.Fields[schema.ColRank2to3]),
				Rank4to10:   cellPtr(r.Fields[schema.ColRank4to10]),
				Rank11to30:  cellPtr(r.Fields[schema.ColRank11to30]),
				Rank31to100: cellPtr(r.Fields[schema.ColRank31to100]),
				Rank100Plus: cellPtr(r.Fields[schema.ColRank100Plus]),
				Platform:    string(r.Platform),
				Stage:       r.Stage,
			}
		}
		return writeParquet(rows)
	case schema.Installs:
		rows := make([]installsParquetRow, len(table.Rows))
		for i, r := range table.Rows {
			rows[i] = installsParquetRow{
				Date:     schema.FormatDate(r.Date),
				Installs: cellPtr(r.Fields[schema.ColInstalls]),
				Platform: string(r.Platform),
				Stage:    r.Stage,
			}
		}
		return writeParquet(rows)
	case schema.Users:
		rows := make([]usersParquetRow, len(table.Rows))
		for i, r := range table.Rows {
			rows[i] = usersParquetRow{
				Date:        schema.FormatDate(r.Date),
				ActiveUsers: cellPtr(r.Fields[schema.ColActiveUsers]),
				Platform:    string(r.Platform),
				Notes:       r.Notes,
				Stage:       r.Stage,
			}
		}
		return writeParquet(rows)
	}
	return nil, fmt.Errorf("unknown data type %q", table.Type)
}

func writeParquet[T any](rows []T) ([]byte, error) {
	var buf bytes.Buffer
	writer := parquet.NewGenericWriter[T](&buf)
	if _, err := writer.Write(rows); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cellPtr(c schema.Cell) *float64 {
	if v, ok := c.Value(); ok {
		return &v
	}
	return nil
}
