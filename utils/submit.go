package utils

import (
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// FlushCommandBuffer ends recording on commandBuffer, submits it to queue
// guarded by fence and blocks until the fence signals. The fence is reset
// right before the submit, so it may be passed in signaled or not.
func FlushCommandBuffer(driver CommandDriver, queue core1_0.Queue, commandBuffer core1_0.CommandBuffer, fence core1_0.Fence) error {
	res, err := driver.EndCommandBuffer(commandBuffer)
	if err != nil {
		return newError(SubmissionError, "end command buffer", res, err)
	}

	res, err = driver.ResetFences(fence)
	if err != nil {
		return newError(SubmissionError, "reset fence", res, err)
	}

	res, err = driver.QueueSubmit(queue, &fence, core1_0.SubmitInfo{
		CommandBuffers: []core1_0.CommandBuffer{commandBuffer},
	})
	if err != nil {
		return newError(SubmissionError, "submit", res, err)
	}

	res, err = driver.WaitForFences(true, common.NoTimeout, fence)
	if err != nil {
		return newError(SubmissionError, "wait for fence", res, err)
	}
	return nil
}
