package datarecording

import (
	"database/sql"
)

// A DataReader reads recorded results back from a SQLite run database, for
// tests and post-run analysis.
type DataReader struct {
	db *sql.DB
}

// NewReader opens the run database at dbFilename.
func NewReader(dbFilename string) *DataReader {
	db, err := sql.Open("sqlite3", dbFilename)
	if err != nil {
		panic(err)
	}

	return &DataReader{db: db}
}

// NewReaderWithDB creates a DataReader on an existing database connection.
func NewReaderWithDB(db *sql.DB) *DataReader {
	return &DataReader{db: db}
}

// ReadSeries returns the recorded time series of one output, ordered by
// timestep.
func (r *DataReader) ReadSeries(component, field string) ([]float64, error) {
	rows, err := r.db.Query(`
		SELECT Value FROM output_values
		WHERE Component = ? AND Field = ?
		ORDER BY Timestep`, component, field)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var series []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		series = append(series, v)
	}

	return series, rows.Err()
}

// RunProperties returns the recorded run metadata.
func (r *DataReader) RunProperties() (map[string]string, error) {
	rows, err := r.db.Query(`SELECT Property, Value FROM run_info`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	props := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		props[k] = v
	}

	return props, rows.Err()
}

// Close closes the underlying database.
func (r *DataReader) Close() error {
	return r.db.Close()
}
