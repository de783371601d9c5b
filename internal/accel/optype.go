package accel

// OpType identifies one node kind in the accelerator's graph.
type OpType int32

// String returns the native symbol name of the opcode.
func (op OpType) String() string {
	if op < 0 || int(op) >= len(opNames) {
		return "<invalid op_type>"
	}
	return opNames[op]
}

// Native opcode table. Values are the accelerator library ABI ordinals:
// the position of each entry is the integer the library expects, so the
// order must match the native header exactly.
const (
	OpINPUT OpType = iota
	OpOUTPUT
	OpNop
	OpConst
	OpCheck
	OpCloseF
	OpCloseQuint8
	OpCloseQQuint8
	OpCloseInt32
	OpCloseQint32
	OpPPrint8
	OpPPrint32
	OpPPrintF
	OpPreFree
	OpFlatten
	OpQuantizedConv2d8x8to32
	OpQuantizedConv2d8x8to32Ref
	OpQuantizedMatMul8x8to32
	OpQuantizedMatMul8x8to32Ref
	OpQuantizeDownAndShrinkRange32to8
	OpQuantizeDownAndShrinkRange32to8Ref
	OpQuantizedRelu8
	OpQuantizedRelu8Ref
	OpQuantizedReluX8
	OpQuantizedReluX8Ref
	OpQuantizedMaxPool8
	OpQuantizedMaxPool8Ref
	OpQuantizedAvgPool8
	OpQuantizedAvgPool8Ref
	OpQuantizedConcat8
	OpQuantizedConcat8Ref
	OpQuantizedBiasAdd8p8to32
	OpQuantizedBiasAdd8p8to32Ref
	OpMinF
	OpMinFRef
	OpMaxF
	OpMaxFRef
	OpQuantize
	OpQuantizeRef
	OpDequantize
	OpDequantizeRef
	OpSupernode8x8p8to8
	OpSupernode8x8p8to8Ref
	OpQuantizedFlatten
	OpSoftmaxF
	OpConv2dF
	OpMatMulF
	OpReluF
	OpReluXF
	OpAvgPoolF
	OpMaxPoolF
	OpConcatF
	OpBiasAddF
	OpLRNF
	OpVariable
	OpAssign
	OpReshape
	OpQuantizedReshape
	OpTanhF
	OpSigmoidF
	OpSlice8
	OpSliceF
	OpQuantizedSlice8
	OpAddF
	OpMulF
	OpMinimumF
	OpMaximumF
	OpRequantize32to8
	OpRequantize32to8Ref
	OpRequantizationRange32
	OpRequantizationRange32Ref
	OpNegF
	OpSubF
	OpAddNF
	OpRangeInt32
	OpRankInt32
	OpTransposeInt32
	OpTransposeF
	OpInstanceNormF
	OpQuantizedInstanceNorm8
	OpQuantizedInstanceNorm8Ref
	OpSubInt32
	OpAddInt32
	OpSplitF
	OpDequantizeQint32F
	OpPReluF
	OpQuantizedPRelu8
	OpQuantizedPRelu8Ref
	OpSumF
	OpProdF
	OpMulInt32
	OpLogicalAndInt32
	OpLogicalOrInt32
	OpLogicalXorInt32
	OpShapeInt32
	OpPackInt32
	OpMirrorPadF
	OpResizeNearestNeighborF
	OpStridedSliceInt32
	OpStridedSliceF
	OpExpandDimsInt32
	OpExpandDimsF
	OpLogSoftmaxF
	OpSplitInt32
	OpQuantizedSplit8
	OpDeconvF
	OpQuantizedDeconv8x8to32
	OpQuantizedDeconv8x8to32Ref
	OpQuantizedMul8x8to32
	OpQuantizedMul8x8to32Ref
	OpQuantizedAdd8p8to32
	OpQuantizedAdd8p8to32Ref
	OpQuantizedSigmoid8
	OpQuantizedSigmoid8Ref
	OpQuantizedTanh8
	OpQuantizedTanh8Ref
	OpQuantizedSoftmax8
	OpQuantizedSoftmax8Ref
	OpQuantizedLRN8
	OpQuantizedLRN8Ref
	OpQuantizedpad2dFrame8p
	OpQuantizedpad2dFrame8pRef
	OpQuantizedSub8p8to32
	OpQuantizedSub8p8to32Ref
	OpQuantizedMaximum8
	OpQuantizedMaximum8Ref
	OpQuantizedMinimum8
	OpQuantizedMinimum8Ref
	OpPadF
	OpSpaceToBatchNDF
	OpBatchToSpaceNDF
	OpQuantizedPad8
	OpResizeBilinearF
	OpConcatV2F
	OpConcatV2Int32
	OpProdInt32
	OpSliceInt32
	OpQuantizedAdd8p8to8
	OpQuantizedResizeBilinear8
	OpSupernode8x8p8to8D32
	OpConvertToD32
	OpConvertFromD32
	OpQuantizedMaxPool8D32
	OpQuantizedMaxPool8D32Ref
	OpQuantizedConcat8D32
	OpQuantizedConcat8D32Ref
	OpQuantizedAvgPool8D32
	OpQuantizedAvgPool8D32Ref
	OpSink
	OpQuantizedPRelu8D32
	OpQuantizedPRelu8D32Ref
	OpAutoQuantize
	OpAutoQuantizeRef
	OpQuantizedDepthwiseConv2d8x8to32
	OpQuantizedDepthwiseConv2d8x8to32Ref
	OpDepthwiseConv2dF
	OpDepthwiseSupernode8x8p8to8
	OpDepthwiseSupernode8x8p8to8D32
	OpQuantizedMul8x8to8D32
	OpQuantizedMul8x8to8D32Ref
	OpFullyConnectedU8
	OpQuantizedAdd8x8to8D32
	OpQuantizedAdd8x8to8D32Ref
	OpQuantizedClamp8
	OpQuantizedClamp8Ref
	OpClampF
	OpQuantizeForTestD32
	OpL2PoolF
)

var opNames = [...]string{
	"OP_INPUT",
	"OP_OUTPUT",
	"OP_Nop",
	"OP_Const",
	"OP_Check",
	"OP_Close_f",
	"OP_Close_quint8",
	"OP_Close_q_quint8",
	"OP_Close_int32",
	"OP_Close_qint32",
	"OP_PPrint_8",
	"OP_PPrint_32",
	"OP_PPrint_f",
	"OP_PreFree",
	"OP_Flatten",
	"OP_QuantizedConv2d_8x8to32",
	"OP_QuantizedConv2d_8x8to32_ref",
	"OP_QuantizedMatMul_8x8to32",
	"OP_QuantizedMatMul_8x8to32_ref",
	"OP_QuantizeDownAndShrinkRange_32to8",
	"OP_QuantizeDownAndShrinkRange_32to8_ref",
	"OP_QuantizedRelu_8",
	"OP_QuantizedRelu_8_ref",
	"OP_QuantizedReluX_8",
	"OP_QuantizedReluX_8_ref",
	"OP_QuantizedMaxPool_8",
	"OP_QuantizedMaxPool_8_ref",
	"OP_QuantizedAvgPool_8",
	"OP_QuantizedAvgPool_8_ref",
	"OP_QuantizedConcat_8",
	"OP_QuantizedConcat_8_ref",
	"OP_QuantizedBiasAdd_8p8to32",
	"OP_QuantizedBiasAdd_8p8to32_ref",
	"OP_Min_f",
	"OP_Min_f_ref",
	"OP_Max_f",
	"OP_Max_f_ref",
	"OP_Quantize",
	"OP_Quantize_ref",
	"OP_Dequantize",
	"OP_Dequantize_ref",
	"OP_Supernode_8x8p8to8",
	"OP_Supernode_8x8p8to8_ref",
	"OP_QuantizedFlatten",
	"OP_Softmax_f",
	"OP_Conv2d_f",
	"OP_MatMul_f",
	"OP_Relu_f",
	"OP_ReluX_f",
	"OP_AvgPool_f",
	"OP_MaxPool_f",
	"OP_Concat_f",
	"OP_BiasAdd_f",
	"OP_LRN_f",
	"OP_Variable",
	"OP_Assign",
	"OP_Reshape",
	"OP_QuantizedReshape",
	"OP_Tanh_f",
	"OP_Sigmoid_f",
	"OP_Slice_8",
	"OP_Slice_f",
	"OP_QuantizedSlice_8",
	"OP_Add_f",
	"OP_Mul_f",
	"OP_Minimum_f",
	"OP_Maximum_f",
	"OP_Requantize_32to8",
	"OP_Requantize_32to8_ref",
	"OP_RequantizationRange_32",
	"OP_RequantizationRange_32_ref",
	"OP_Neg_f",
	"OP_Sub_f",
	"OP_AddN_f",
	"OP_Range_int32",
	"OP_Rank_int32",
	"OP_Transpose_int32",
	"OP_Transpose_f",
	"OP_InstanceNorm_f",
	"OP_QuantizedInstanceNorm_8",
	"OP_QuantizedInstanceNorm_8_ref",
	"OP_Sub_int32",
	"OP_Add_int32",
	"OP_Split_f",
	"OP_Dequantize_qint32_f",
	"OP_PRelu_f",
	"OP_QuantizedPRelu_8",
	"OP_QuantizedPRelu_8_ref",
	"OP_Sum_f",
	"OP_Prod_f",
	"OP_Mul_int32",
	"OP_LogicalAnd_int32",
	"OP_LogicalOr_int32",
	"OP_LogicalXor_int32",
	"OP_Shape_int32",
	"OP_Pack_int32",
	"OP_MirrorPad_f",
	"OP_ResizeNearestNeighbor_f",
	"OP_StridedSlice_int32",
	"OP_StridedSlice_f",
	"OP_ExpandDims_int32",
	"OP_ExpandDims_f",
	"OP_LogSoftmax_f",
	"OP_Split_int32",
	"OP_QuantizedSplit_8",
	"OP_Deconv_f",
	"OP_QuantizedDeconv_8x8to32",
	"OP_QuantizedDeconv_8x8to32_ref",
	"OP_QuantizedMul_8x8to32",
	"OP_QuantizedMul_8x8to32_ref",
	"OP_QuantizedAdd_8p8to32",
	"OP_QuantizedAdd_8p8to32_ref",
	"OP_QuantizedSigmoid_8",
	"OP_QuantizedSigmoid_8_ref",
	"OP_QuantizedTanh_8",
	"OP_QuantizedTanh_8_ref",
	"OP_QuantizedSoftmax_8",
	"OP_QuantizedSoftmax_8_ref",
	"OP_QuantizedLRN_8",
	"OP_QuantizedLRN_8_ref",
	"OP_Quantizedpad2d_frame_8p",
	"OP_Quantizedpad2d_frame_8p_ref",
	"OP_QuantizedSub_8p8to32",
	"OP_QuantizedSub_8p8to32_ref",
	"OP_QuantizedMaximum_8",
	"OP_QuantizedMaximum_8_ref",
	"OP_QuantizedMinimum_8",
	"OP_QuantizedMinimum_8_ref",
	"OP_Pad_f",
	"OP_SpaceToBatchND_f",
	"OP_BatchToSpaceND_f",
	"OP_QuantizedPad_8",
	"OP_ResizeBilinear_f",
	"OP_ConcatV2_f",
	"OP_ConcatV2_int32",
	"OP_Prod_int32",
	"OP_Slice_int32",
	"OP_QuantizedAdd_8p8to8",
	"OP_QuantizedResizeBilinear_8",
	"OP_Supernode_8x8p8to8_d32",
	"OP_Convert_to_d32",
	"OP_Convert_from_d32",
	"OP_QuantizedMaxPool_8_d32",
	"OP_QuantizedMaxPool_8_d32_ref",
	"OP_QuantizedConcat_8_d32",
	"OP_QuantizedConcat_8_d32_ref",
	"OP_QuantizedAvgPool_8_d32",
	"OP_QuantizedAvgPool_8_d32_ref",
	"OP_Sink",
	"OP_QuantizedPRelu_8_d32",
	"OP_QuantizedPRelu_8_d32_ref",
	"OP_AutoQuantize",
	"OP_AutoQuantize_ref",
	"OP_QuantizedDepthwiseConv2d_8x8to32",
	"OP_QuantizedDepthwiseConv2d_8x8to32_ref",
	"OP_DepthwiseConv2d_f",
	"OP_DepthwiseSupernode_8x8p8to8",
	"OP_DepthwiseSupernode_8x8p8to8_d32",
	"OP_QuantizedMul_8x8to8_d32",
	"OP_QuantizedMul_8x8to8_d32_ref",
	"OP_FullyConnected_u8",
	"OP_QuantizedAdd_8x8to8_d32",
	"OP_QuantizedAdd_8x8to8_d32_ref",
	"OP_QuantizedClamp_8",
	"OP_QuantizedClamp_8_ref",
	"OP_Clamp_f",
	"OP_QuantizeForTest_d32",
	"OP_L2Pool_f",
}
