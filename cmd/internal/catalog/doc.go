// Package catalog manages campus reference data: faculties and the study
// programs that belong to them.
package catalog
