//go:build ocrdebug

package check

const hardMode = true
