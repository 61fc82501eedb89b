package ttb

import (
	"log"

	"gonum.org/v1/gonum/mat"
)

//HandleError panics on a non-nil error. Meant for CLI-side I/O where there is
//nothing sensible to do but abort.
func HandleError(err error) {
	if err != nil {
		log.Panic(err)
	}
}

//Height returns the number of rows of a matrix.
func Height(m *mat.Dense) int {
	h, _ := m.Dims()
	return h
}
