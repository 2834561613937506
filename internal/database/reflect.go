package database

import (
	"database/sql"
	"fmt"
	"reflect"
)

// insertColumns extracts column names and values from a struct using `db:`
// tags. Fields tagged db:"-" and a zero "id" field are skipped so the
// database assigns the key.
func insertColumns(record any) (cols []string, vals []any) {
	v := reflect.Indirect(reflect.ValueOf(record))
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		if tag == "id" && v.Field(i).IsZero() {
			continue
		}
		cols = append(cols, tag)
		vals = append(vals, v.Field(i).Interface())
	}
	return cols, vals
}

// scanRows scans every row into dest, a pointer to a slice of structs (or
// struct pointers), matching columns to `db:` tags.
func scanRows(rows *sql.Rows, dest any) error {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Pointer || dv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("select: dest must be a pointer to a slice")
	}
	slice := dv.Elem()
	elemType := slice.Type().Elem()
	isPtr := elemType.Kind() == reflect.Pointer
	if isPtr {
		elemType = elemType.Elem()
	}

	for rows.Next() {
		elem := reflect.New(elemType)
		if err := scanCurrent(rows, elem.Interface()); err != nil {
			return err
		}
		if isPtr {
			slice.Set(reflect.Append(slice, elem))
		} else {
			slice.Set(reflect.Append(slice, elem.Elem()))
		}
	}
	return rows.Err()
}

// scanCurrent scans the current row into dest, a pointer to a struct.
// Columns without a matching field are discarded.
func scanCurrent(rows *sql.Rows, dest any) error {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Pointer || dv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("get: dest must be a pointer to a struct")
	}
	cols, err := rows.Columns()
	if err != nil {
		return err
	}

	elem := dv.Elem()
	fields := map[string]any{}
	for i := 0; i < elem.NumField(); i++ {
		if tag := elem.Type().Field(i).Tag.Get("db"); tag != "" && tag != "-" {
			fields[tag] = elem.Field(i).Addr().Interface()
		}
	}
	ptrs := make([]any, len(cols))
	for i, c := range cols {
		if p, ok := fields[c]; ok {
			ptrs[i] = p
		} else {
			var discard any
			ptrs[i] = &discard
		}
	}
	return rows.Scan(ptrs...)
}
