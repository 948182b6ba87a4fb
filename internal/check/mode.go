//go:build !ocrdebug

package check

const hardMode = false
