// 版权所有 2025 Blossom Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 image 提供 Pollinations.AI 的图像生成能力。

# 概述

图像端点是一个 GET 接口：提示词在路径里，其余参数在查询串里。
本包在发请求前完成全部参数校验（尺寸、引导系数、质量档位），
并保证 GenerateURL 产出规范化 URL：参数按字典序排列、默认值省略，
同一请求永远得到字节一致的 URL，可直接作为缓存键。

# 核心类型

  - Request：图像生成参数，零值字段表示交给服务端默认。
  - Service：图像服务，提供 Generate / GenerateURL / Save / Models。

# 参数边界

  - 宽高：64 到 2048 像素。
  - 引导系数：1.0 到 20.0。
  - 提示词：非空，至多 2000 个字符。
  - quality：low / medium / high / hd；format：jpeg / png / webp。

# 缓存语义

带 seed 的请求是确定性的，挂上缓存后相同请求只会打一次上游；
未带 seed 的请求每次结果不同，不参与缓存。
*/
package image
