package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Msg     string      `json:"msg"`
	Data    interface{} `json:"data"`
}

type APIErrorParams struct {
	Msg string
	Err error
	// Data is returned alongside the error, e.g. the unchanged workflow state.
	Data interface{}
}

type APISuccessParams struct {
	Msg  string
	Data interface{}
}

func callError(c *gin.Context, status int, params APIErrorParams) {
	data := params.Data
	if data == nil {
		data = map[string]interface{}{}
	}
	response := APIResponse{
		Success: false,
		Error:   params.Err.Error(),
		Msg:     params.Msg,
		Data:    data,
	}
	c.JSON(status, response)
}

// CallErrorNotFound is for return API response not found
func CallErrorNotFound(c *gin.Context, params APIErrorParams) {
	callError(c, http.StatusNotFound, params)
}

// CallUserError is for return error from user side
func CallUserError(c *gin.Context, params APIErrorParams) {
	callError(c, http.StatusBadRequest, params)
}

// CallConflict is for return API response when the request is not allowed in the current workflow state
func CallConflict(c *gin.Context, params APIErrorParams) {
	callError(c, http.StatusConflict, params)
}

// CallTooManyRequests is for return API response when the client exceeded the rate limit
func CallTooManyRequests(c *gin.Context, params APIErrorParams) {
	callError(c, http.StatusTooManyRequests, params)
}

// CallServiceUnavailable is for return API response when a device the request needs cannot be used
func CallServiceUnavailable(c *gin.Context, params APIErrorParams) {
	callError(c, http.StatusServiceUnavailable, params)
}

// CallServerError is for return API response server error
func CallServerError(c *gin.Context, params APIErrorParams) {
	callError(c, http.StatusInternalServerError, params)
}

// CallSuccessOK is for return API response with status code 200, you need to specify msg, and data as function parameter
func CallSuccessOK(c *gin.Context, params APISuccessParams) {
	response := APIResponse{
		Success: true,
		Error:   "",
		Msg:     params.Msg,
		Data:    params.Data,
	}
	c.JSON(http.StatusOK, response)
}
