// Package memory configures GOMEMLIMIT from the container environment
// and monitors heap usage to apply backpressure to the decode pool.
//
// The whole point of the thumbnail pipeline is to keep peak allocation
// proportional to the thumbnail bound instead of the source media; the
// monitor is the safety net for everything the bound does not cover
// (many concurrent decodes, oversized intermediate buffers in C
// libraries, and so on).
package memory
